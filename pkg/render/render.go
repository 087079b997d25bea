// Package render implements the Renderer Adapter (C8): a deterministic,
// side-effect-free projection of a collection's index to human- and
// machine-readable artifacts. Every function here is a pure function of
// its inputs — no file I/O, no network access. Callers decide where the
// returned bytes land.
package render

import (
	"sort"
	"strings"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// statusGlyphs is the canonical ASCII status alphabet for repository
// items. The source material emits two glyph alphabets for the same
// git_status values (ASCII brackets and emoji); the bracket form is
// the one carried forward here.
var statusGlyphs = map[string]string{
	"up_to_date":        "[OK]",
	"updates_available": "[^]",
	"error":              "[!]",
	"no_remote":          "[o]",
	"not_a_repo":         "[O]",
}

// statusGlyph returns the glyph for a git_status value, or "" if the
// status is absent or unrecognized.
func statusGlyph(status string) string {
	return statusGlyphs[status]
}

func gitStatus(it collection.Item) string {
	v, _ := it.Metadata["git_status"].(string)
	return v
}

func categoryOf(it collection.Item) string {
	if it.Category == nil {
		return ""
	}
	return *it.Category
}

func descriptionOf(it collection.Item) string {
	if it.Description == nil || *it.Description == "" {
		return "No description available"
	}
	return *it.Description
}

// section is one category's worth of items, collated for rendering.
type section struct {
	Category string
	Items    []collection.Item
}

// collate groups items by category in config.Categories declared order,
// sorting each section's items by size descending, and returns any
// uncategorized items separately. This ordering is shared by every
// output format.
func collate(idx *collection.Index, cfg *collection.Config) (sections []section, uncategorized []collection.Item) {
	byCategory := make(map[string][]collection.Item)
	for _, it := range idx.Items {
		cat := categoryOf(it)
		if cat == "" {
			uncategorized = append(uncategorized, it)
			continue
		}
		byCategory[cat] = append(byCategory[cat], it)
	}

	seen := make(map[string]bool, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		items, ok := byCategory[cat]
		if !ok {
			continue
		}
		seen[cat] = true
		sortBySizeDesc(items)
		sections = append(sections, section{Category: cat, Items: items})
	}

	// Categories present on items but absent from config.Categories
	// (e.g. a rescan ahead of a config edit) still render, appended in
	// alphabetical order after the declared ones.
	var extra []string
	for cat := range byCategory {
		if !seen[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	for _, cat := range extra {
		items := byCategory[cat]
		sortBySizeDesc(items)
		sections = append(sections, section{Category: cat, Items: items})
	}

	sortBySizeDesc(uncategorized)
	return sections, uncategorized
}

func sortBySizeDesc(items []collection.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SizeBytes > items[j].SizeBytes
	})
}

func statusHistogram(idx *collection.Index) map[string]int {
	counts := make(map[string]int)
	for _, it := range idx.Items {
		status := gitStatus(it)
		if status == "" {
			continue
		}
		counts[status]++
	}
	return counts
}

func titleCase(category string) string {
	words := strings.Split(category, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func overviewText(idx *collection.Index) string {
	if idx.CollectionOverview == nil {
		return ""
	}
	return *idx.CollectionOverview
}
