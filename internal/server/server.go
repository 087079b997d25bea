// Package server is the optional network surface: a minimal REST + SSE
// mirror of the pipeline orchestrator, covering a registry of collection
// roots rather than a single fixed one. It is not imported by pkg/pipeline
// or any other core package, so the engine stays headless-buildable
// without it.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
)

// registration is one collection root registered with the server: its own
// orchestrator, event bus, and run registry, so two concurrently
// registered collections never share progress events or run state.
type registration struct {
	ID   string `json:"id"`
	Root string `json:"root"`

	orch *pipeline.Orchestrator
	bus  *events.Bus
	runs *runregistry.Store
}

// Server fronts a registry of collections over HTTP.
type Server struct {
	mux *chi.Mux

	mu          sync.RWMutex
	collections map[string]*registration

	// root is the "current directory" collection that process-wide
	// config surfaces (/config/llm) apply to; a collection registered
	// later via POST /collections does not change it.
	root string
	log  *zap.Logger
}

// defaultCollectionID names the collection New seeds from its arguments,
// the one a bare `collectivist serve` exposes without any prior
// POST /collections call.
const defaultCollectionID = "default"

// New builds a Server seeded with one collection (root, orch, bus, runs),
// registered under defaultCollectionID, and wires every documented route.
func New(root string, orch *pipeline.Orchestrator, bus *events.Bus, runs *runregistry.Store, log *zap.Logger) *Server {
	s := &Server{
		collections: map[string]*registration{
			defaultCollectionID: {ID: defaultCollectionID, Root: root, orch: orch, bus: bus, runs: runs},
		},
		root: root,
		log:  log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Route("/collections", func(r chi.Router) {
		r.Post("/", s.handleCreateCollection)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetCollection)
			r.Put("/", s.handlePutCollection)
			r.Delete("/", s.handleDeleteCollection)
			r.Post("/run", s.handleRun)
			r.Get("/schedule", s.handleGetSchedule)
			r.Put("/schedule", s.handlePutSchedule)
			r.Get("/events", s.handleEvents)
		})
	})
	r.Get("/runs/{runID}", s.handleGetRun)

	r.Route("/config/llm", func(r chi.Router) {
		r.Get("/", s.handleGetLLMConfig)
		r.Put("/", s.handlePutLLMConfig)
		r.Post("/test", s.handleTestLLMConfig)
		r.Get("/providers", s.handleListProviders)
	})

	s.mux = r
	return s
}

// Handler exposes the underlying http.Handler, mirroring the teacher's
// Server.Handler() shape so a caller can plug it into httptest or a real
// net/http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

// lookup returns the registration for id, if any.
func (s *Server) lookup(id string) (*registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.collections[id]
	return reg, ok
}

// allRegistrations snapshots the current registry, for handlers (like
// handleGetRun) that must search across every collection.
func (s *Server) allRegistrations() []*registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := make([]*registration, 0, len(s.collections))
	for _, reg := range s.collections {
		regs = append(regs, reg)
	}
	return regs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
