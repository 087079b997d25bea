package server

import (
	"net/http"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/internal/config"
	"github.com/go-collectivist/collectivist/pkg/model"
)

// llmConfigPath is where handlePutLLMConfig persists its writes: the same
// collection-local file internal/config.Load checks first.
func (s *Server) llmConfigPath() string {
	return filepath.Join(s.root, ".collection", "collectivist.yaml")
}

// llmConfigView is model.Config with the API key redacted on the way out.
type llmConfigView struct {
	Provider string `json:"provider" yaml:"provider"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Model    string `json:"model" yaml:"model"`
	HasKey   bool   `json:"has_key" yaml:"-"`
}

func (s *Server) handleGetLLMConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load(s.root, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, llmConfigView{
		Provider: cfg.Model.Provider,
		BaseURL:  cfg.Model.BaseURL,
		Model:    cfg.Model.Model,
		HasKey:   cfg.Model.APIKey != "",
	})
}

// llmConfigUpdate is the request body for handlePutLLMConfig; unlike
// llmConfigView it accepts an API key, since that's the one field the
// server never echoes back.
type llmConfigUpdate struct {
	Provider string `json:"provider" yaml:"provider"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Model    string `json:"model" yaml:"model"`
}

func (s *Server) handlePutLLMConfig(w http.ResponseWriter, r *http.Request) {
	var req llmConfigUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resolved, err := model.ResolveConfig(model.Config{
		Provider: req.Provider,
		BaseURL:  req.BaseURL,
		APIKey:   req.APIKey,
		Model:    req.Model,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc := struct {
		LLM llmConfigUpdate `yaml:"llm"`
	}{LLM: llmConfigUpdate{
		Provider: resolved.Provider,
		BaseURL:  resolved.BaseURL,
		APIKey:   resolved.APIKey,
		Model:    resolved.Model,
	}}
	b, err := yaml.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	path := s.llmConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, llmConfigView{
		Provider: resolved.Provider,
		BaseURL:  resolved.BaseURL,
		Model:    resolved.Model,
		HasKey:   resolved.APIKey != "",
	})
}

type testLLMRequest struct {
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

type testLLMResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleTestLLMConfig probes a candidate config (or the currently
// discovered one, if the request body is empty) without persisting it.
func (s *Server) handleTestLLMConfig(w http.ResponseWriter, r *http.Request) {
	var req testLLMRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	cfg := model.Config{Provider: req.Provider, BaseURL: req.BaseURL, APIKey: req.APIKey, Model: req.Model}
	if cfg.Provider == "" {
		discovered, err := config.Load(s.root, "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		cfg = discovered.Model
	}

	resolved, err := model.ResolveConfig(cfg)
	if err != nil {
		writeJSON(w, http.StatusOK, testLLMResponse{OK: false, Error: err.Error()})
		return
	}

	if err := model.New(resolved).Probe(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, testLLMResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, testLLMResponse{OK: true})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.KnownProviderNames())
}
