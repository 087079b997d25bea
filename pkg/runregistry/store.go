// Package runregistry persists collection.Run records to an on-disk
// directory, one JSON file per run. This is the same write-then-rename,
// one-file-per-record layout used elsewhere in this engine for
// crash-safe state, adapted here for PipelineRun's queryable/structured
// storage need rather than the flat document an index artifact is.
package runregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// Store reads and writes runs under root, one <run_id>.json per run.
type Store struct {
	root string
}

// NewStore constructs a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) pathFor(runID string) string {
	return filepath.Join(s.root, runID+".json")
}

// Write persists run atomically: marshal, write to a temp file in the
// same directory, then rename over the final path.
func (s *Store) Write(run *collection.Run) error {
	if run == nil || strings.TrimSpace(run.RunID) == "" {
		return fmt.Errorf("runregistry: run_id is required")
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("runregistry: create root: %w", err)
	}

	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("runregistry: marshal run: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(s.root, "run.json.tmp.*")
	if err != nil {
		return fmt.Errorf("runregistry: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("runregistry: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("runregistry: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.pathFor(run.RunID)); err != nil {
		return fmt.Errorf("runregistry: rename run file: %w", err)
	}
	return nil
}

// Get loads a single run by ID.
func (s *Store) Get(runID string) (*collection.Run, error) {
	b, err := os.ReadFile(s.pathFor(runID))
	if err != nil {
		return nil, err
	}
	var run collection.Run
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, fmt.Errorf("runregistry: parse %s: %w", runID, err)
	}
	return &run, nil
}

// List returns every known run, most recently queued first.
func (s *Store) List() ([]collection.Run, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("runregistry: read root: %w", err)
	}

	out := make([]collection.Run, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		runID := strings.TrimSuffix(e.Name(), ".json")
		run, err := s.Get(runID)
		if err != nil {
			continue
		}
		out = append(out, *run)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].QueuedAt.After(out[j].QueuedAt)
	})
	return out, nil
}
