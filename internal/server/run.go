package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

type runRequest struct {
	Mode         string `json:"mode"`
	SkipOrganic  bool   `json:"skip_organic"`
	SkipAnalyze  bool   `json:"skip_analyze"`
	SkipScan     bool   `json:"skip_scan"`
	SkipDescribe bool   `json:"skip_describe"`
	SkipRender   bool   `json:"skip_render"`
	ForceType    string `json:"force_type"`
	Workers      int    `json:"max_workers"`
}

type runResponse struct {
	RunID string `json:"run_id"`
	State string `json:"state"`
}

// handleRun schedules a pipeline run against the {id} collection and
// returns its run_id immediately; the run itself executes in the
// background, which is the async counterpart handleEvents pushes
// progress for.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reg, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not registered", id))
		return
	}

	var req runRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	mode := pipeline.Mode(req.Mode)
	if mode == "" {
		mode = pipeline.ModeManual
	}

	runID := uuid.NewString()
	opts := pipeline.Options{
		RunID:        runID,
		Mode:         mode,
		SkipOrganic:  req.SkipOrganic,
		SkipAnalyze:  req.SkipAnalyze,
		SkipScan:     req.SkipScan,
		SkipDescribe: req.SkipDescribe,
		SkipRender:   req.SkipRender,
		ForceType:    req.ForceType,
		Workers:      req.Workers,
	}

	// Persist a queued record synchronously so GET /runs/{run_id} has
	// something to find the instant this handler returns.
	_ = reg.runs.Write(&collection.Run{RunID: runID, Mode: string(mode), State: collection.RunStateQueued, QueuedAt: time.Now().UTC()})

	// A background run outlives this request; it still completes and
	// persists even if the client that triggered it disconnects.
	go func() {
		if _, err := reg.orch.Run(context.Background(), reg.Root, opts); err != nil {
			s.log.Error("background run failed", zap.String("collection", id), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, runResponse{RunID: runID, State: string(collection.RunStateQueued)})
}

// handleGetRun looks a run up by ID across every registered collection:
// run IDs are UUIDs, so a single global lookup is unambiguous without
// requiring the caller to also know which collection it belongs to.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	for _, reg := range s.allRegistrations() {
		if run, err := reg.runs.Get(runID); err == nil {
			writeJSON(w, http.StatusOK, run)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("run %q not found", runID))
}
