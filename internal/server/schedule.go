package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/analyzer"
	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

func configPath(root string) string {
	return filepath.Join(root, pipeline.StateDirName, analyzer.ConfigFileName)
}

func loadConfig(root string) (*collection.Config, error) {
	raw, err := os.ReadFile(configPath(root))
	if err != nil {
		return nil, err
	}
	var cfg collection.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &collection.ConfigError{Path: configPath(root), Err: err}
	}
	return &cfg, nil
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reg, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not registered", id))
		return
	}

	cfg, err := loadConfig(reg.Root)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Schedule)
}

func (s *Server) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reg, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not registered", id))
		return
	}

	cfg, err := loadConfig(reg.Root)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var sched collection.ScheduleConfig
	if err := decodeJSON(r, &sched); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg.Schedule = sched

	if err := collection.ValidateConfig(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := os.WriteFile(configPath(reg.Root), b, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Schedule)
}
