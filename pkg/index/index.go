// Package index implements the Index Store: loading and atomically
// saving the per-collection index.yaml artifact, and accepting both the
// legacy bare-list layout and the current {collection_overview, items}
// layout on load while always emitting the current layout on save.
package index

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// FileName is the artifact name inside a collection's state directory.
const FileName = "index.yaml"

// coreKeys are the CollectionItem fields promoted to top level on disk;
// any other key present in a legacy record folds into Metadata on load.
var coreKeys = map[string]bool{
	"path": true, "short_name": true, "type": true, "size_bytes": true,
	"created": true, "modified": true, "accessed": true,
	"description": true, "category": true, "metadata": true,
}

// Load reads path, accepting either the legacy top-level list layout or
// the current {collection_overview, items} map layout. A missing file
// returns an empty Index, not an error — a fresh collection has none yet.
func Load(path string) (*collection.Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &collection.Index{}, nil
		}
		return nil, &collection.PersistError{Path: path, Err: err}
	}

	var asMap struct {
		CollectionOverview *string          `yaml:"collection_overview"`
		Items              []map[string]any `yaml:"items"`
	}
	if err := yaml.Unmarshal(raw, &asMap); err == nil && asMap.Items != nil {
		return buildIndex(asMap.CollectionOverview, asMap.Items), nil
	}

	var asList []map[string]any
	if err := yaml.Unmarshal(raw, &asList); err != nil {
		return nil, &collection.PersistError{Path: path, Err: fmt.Errorf("unrecognized index layout: %w", err)}
	}
	return buildIndex(nil, asList), nil
}

func buildIndex(overview *string, raw []map[string]any) *collection.Index {
	items := make([]collection.Item, 0, len(raw))
	for _, rec := range raw {
		items = append(items, decodeItem(rec))
	}
	return &collection.Index{CollectionOverview: overview, Items: items}
}

// decodeItem promotes the documented core fields and folds everything
// else into Metadata, merging with any explicit "metadata" sub-map.
func decodeItem(rec map[string]any) collection.Item {
	var it collection.Item
	b, _ := yaml.Marshal(rec)
	_ = yaml.Unmarshal(b, &it)

	metadata := map[string]any{}
	if m, ok := rec["metadata"].(map[string]any); ok {
		for k, v := range m {
			metadata[k] = v
		}
	}
	for k, v := range rec {
		if !coreKeys[k] {
			metadata[k] = v
		}
	}
	if len(metadata) > 0 {
		it.Metadata = metadata
	}
	return it
}

// encodeItem is decodeItem's inverse: it promotes Metadata's entries back
// to top-level keys rather than leaving them nested under a "metadata"
// key, matching the documented on-disk layout where unknown keys are
// folded into Metadata on load and re-flattened to top level on save.
func encodeItem(it collection.Item) map[string]any {
	b, _ := yaml.Marshal(it)
	var rec map[string]any
	_ = yaml.Unmarshal(b, &rec)

	delete(rec, "metadata")
	for k, v := range it.Metadata {
		rec[k] = v
	}
	return rec
}

// Save writes idx to path atomically (write to a temp file, then
// rename), always in the current {collection_overview, items} layout.
func Save(path string, idx *collection.Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &collection.PersistError{Path: path, Err: err}
	}

	items := make([]map[string]any, len(idx.Items))
	for i, it := range idx.Items {
		items[i] = encodeItem(it)
	}

	doc := struct {
		CollectionOverview *string          `yaml:"collection_overview"`
		Items              []map[string]any `yaml:"items"`
	}{CollectionOverview: idx.CollectionOverview, Items: items}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return &collection.PersistError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".index.yaml.tmp.*")
	if err != nil {
		return &collection.PersistError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return &collection.PersistError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &collection.PersistError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &collection.PersistError{Path: path, Err: err}
	}
	return nil
}
