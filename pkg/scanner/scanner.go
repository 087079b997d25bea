// Package scanner defines the plugin contract that lets domain-specific
// tree walkers (repositories, documents, media, notes, ...) be swapped
// without touching the orchestration engine, plus the name-keyed registry
// that holds them.
package scanner

import (
	"github.com/go-collectivist/collectivist/pkg/collection"
)

// Scanner is the capability bundle a collection-domain plugin implements.
// Implementations must be safe for concurrent use of ContentForDescription
// (the Describer calls it from worker goroutines) but Scan itself is
// called once, single-threaded, per run.
type Scanner interface {
	// Name returns the plugin identifier (e.g. "repositories", "obsidian").
	Name() string

	// SupportedTypes returns the item types this scanner produces.
	// Informational only.
	SupportedTypes() []string

	// DefaultCategories returns the ordered category list a fresh
	// CollectionConfig should be seeded with. The last entry is the
	// misc sink.
	DefaultCategories() []string

	// Detect performs a cheap, non-recursive (beyond small sampling)
	// check of whether root looks like this scanner's domain.
	Detect(root string) bool

	// Scan walks root and returns the discovered items. scannerConfig is
	// the opaque, scanner-specific bag from CollectionConfig.ScannerConfig.
	// preserve is the path -> {description, category} table from the
	// prior index; implementations are not required to consult it
	// directly (the Scanner Host re-applies it after Scan returns) but
	// may use it to skip expensive re-extraction.
	Scan(root string, scannerConfig map[string]any, preserve collection.PreserveMap) ([]collection.Item, error)

	// DescriptionPromptTemplate returns the LLM prompt template for this
	// domain. It must contain the placeholder "{content}"; scanners may
	// also reference any of the documented optional fields (see
	// pkg/describer), which default to empty when the scanner doesn't
	// populate them.
	DescriptionPromptTemplate() string

	// ContentForDescription extracts up to ~3000 graphemes of content
	// from item for the describer prompt. May return "" — the Describer
	// skips such items with reason "no_content".
	ContentForDescription(item collection.Item) string
}

// MaxContentGraphemes is the documented content length bound passed to
// the describer prompt.
const MaxContentGraphemes = 3000

// MaxDescriptionGraphemes is the documented description length bound.
const MaxDescriptionGraphemes = 150
