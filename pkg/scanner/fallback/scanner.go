// Package fallback implements the catch-all scanner used when no
// domain-specific scanner's Detect matches a collection root.
package fallback

import (
	"os"
	"path/filepath"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Name is the registered scanner identifier.
const Name = "fallback"

// Scanner is the last-resort, type-agnostic tree walker.
type Scanner struct{}

// New constructs a fallback Scanner.
func New() *Scanner { return &Scanner{} }

func init() { scanner.Default.RegisterFallback(New()) }

func (s *Scanner) Name() string            { return Name }
func (s *Scanner) SupportedTypes() []string { return []string{"file", "dir"} }

func (s *Scanner) DefaultCategories() []string {
	return []string{
		"documents",
		"media_files",
		"code_projects",
		"data_files",
		"archives",
		"configuration",
		"utilities",
		"miscellaneous",
	}
}

// Detect always matches; callers are expected to try every other
// registered scanner first.
func (s *Scanner) Detect(string) bool { return true }

// Scan lists root's immediate entries (files and directories alike),
// the broadest interpretation of "collection item" when no scanner
// claims a more specific domain.
func (s *Scanner) Scan(root string, _ map[string]any, preserve collection.PreserveMap) ([]collection.Item, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	items := make([]collection.Item, 0, len(entries))
	for _, e := range entries {
		if scanner.IsExcluded(e.Name(), true) {
			continue
		}
		path := filepath.Join(root, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, scanner.StatItem(path, info, preserve))
	}
	return items, nil
}

// DescriptionPromptTemplate implements scanner.Scanner.
func (s *Scanner) DescriptionPromptTemplate() string {
	return `You are a general-purpose cataloger. Generate a one-sentence description and category for this item.

Item: {name}
Type: {type}

Content:
{content}

Respond with JSON: {"description": "...", "category": "miscellaneous"}`
}

// ContentForDescription returns a small synopsis for files; directories
// have no directly extractable content.
func (s *Scanner) ContentForDescription(item collection.Item) string {
	if item.Type == "dir" {
		return "Directory: " + item.ShortName
	}
	return scanner.ReadHeadText(item.Path, scanner.MaxContentGraphemes)
}
