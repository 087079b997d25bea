package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/go-collectivist/collectivist/internal/config"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

type collectionRequest struct {
	ID   string `json:"id"`
	Root string `json:"root"`
}

// registerCollection builds a fresh orchestrator/bus/run-registry for
// root and stores it under id, replacing any prior registration with that
// id (PUT re-roots a collection the same way POST creates one).
func (s *Server) registerCollection(id, root string) (*registration, error) {
	cfg, err := config.Load(root, "")
	if err != nil {
		return nil, err
	}
	bus := events.New()
	runs := runregistry.NewStore(filepath.Join(root, pipeline.StateDirName, "runs"))
	orch := pipeline.New(scanner.Default, model.New(cfg.Model), bus, runs).WithLogger(s.log)

	reg := &registration{ID: id, Root: root, orch: orch, bus: bus, runs: runs}

	s.mu.Lock()
	s.collections[id] = reg
	s.mu.Unlock()
	return reg, nil
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" || req.Root == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("id and root are both required"))
		return
	}
	if _, exists := s.lookup(req.ID); exists {
		writeError(w, http.StatusConflict, fmt.Errorf("collection %q already registered", req.ID))
		return
	}

	reg, err := s.registerCollection(req.ID, req.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reg, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not registered", id))
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (s *Server) handlePutCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Root == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("root is required"))
		return
	}

	reg, err := s.registerCollection(id, req.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.collections[id]
	delete(s.collections, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not registered", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
