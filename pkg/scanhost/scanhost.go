// Package scanhost implements the Scanner Host (C6): runs the selected
// scanner against a collection's tree, merges data preserved from the
// prior index, and writes the refreshed index.
package scanhost

import (
	"fmt"
	"path/filepath"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/index"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Host runs a scan and writes the resulting index.
type Host struct {
	Bus *events.Bus
}

// New constructs a Host.
func New(bus *events.Bus) *Host {
	return &Host{Bus: bus}
}

// Run loads the prior index at indexPath, hands its preserve map to s,
// scans root, canonicalizes item paths, validates the §3 invariants,
// and writes the refreshed index with the prior overview intact.
func (h *Host) Run(s scanner.Scanner, cfg *collection.Config, root, indexPath string) (*collection.Index, error) {
	tracker := events.NewTracker(h.Bus)
	tracker.SetStage("scan", 1)

	prior, err := index.Load(indexPath)
	if err != nil {
		return nil, &collection.ScannerError{Scanner: s.Name(), Err: err}
	}
	preserve := prior.PreserveMap()

	items, err := s.Scan(root, cfg.ScannerConfig, preserve)
	if err != nil {
		return nil, &collection.ScannerError{Scanner: s.Name(), Err: err}
	}

	for i := range items {
		canon, err := canonicalize(items[i].Path)
		if err != nil {
			return nil, &collection.ScannerError{Scanner: s.Name(), Err: err}
		}
		items[i].Path = canon

		if entry, ok := preserve[canon]; ok {
			items[i].Description = entry.Description
			items[i].Category = entry.Category
		}

		if err := validateItem(items[i], cfg); err != nil {
			return nil, &collection.ScannerError{Scanner: s.Name(), Err: err}
		}
	}

	if cfg.ExcludeHidden {
		items = filterHidden(items)
	}

	newIdx := &collection.Index{CollectionOverview: prior.CollectionOverview, Items: items}
	if err := index.Save(indexPath, newIdx); err != nil {
		return nil, err
	}

	tracker.CompleteStage(fmt.Sprintf("scanned %d items", len(items)))
	return newIdx, nil
}

// canonicalize resolves path to an absolute path with symlinks resolved,
// so a rescan matches prior entries by identity even when reached through
// a different symlinked route.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func validateItem(it collection.Item, cfg *collection.Config) error {
	if it.SizeBytes < 0 {
		return fmt.Errorf("item %s: negative size_bytes", it.Path)
	}
	if it.Category != nil && !cfg.HasCategory(*it.Category) {
		return fmt.Errorf("item %s: category %q not in config categories", it.Path, *it.Category)
	}
	return nil
}

// filterHidden drops items whose short name starts with a dot, for
// scanners that don't already enforce exclude_hidden themselves.
func filterHidden(items []collection.Item) []collection.Item {
	out := make([]collection.Item, 0, len(items))
	for _, it := range items {
		if len(it.ShortName) > 0 && it.ShortName[0] == '.' {
			continue
		}
		out = append(out, it)
	}
	return out
}
