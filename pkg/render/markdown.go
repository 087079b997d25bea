package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// Markdown renders the collection as a README-style document: a header,
// a status-overview section (when any item carries a git_status), one
// section per category in declared order, an "Other Items" section for
// uncategorized items, and a footer.
func Markdown(idx *collection.Index, cfg *collection.Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", nonEmpty(cfg.Name, "Collection"))
	fmt.Fprintf(&b, "> Indexed %s collection\n\n", nonEmpty(cfg.CollectionType, "unknown"))

	if ov := overviewText(idx); ov != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(ov)
		b.WriteString("\n\n")
	}

	described, categorized := 0, 0
	var totalSize int64
	for _, it := range idx.Items {
		totalSize += it.SizeBytes
		if it.Description != nil && *it.Description != "" {
			described++
		}
		if it.Category != nil {
			categorized++
		}
	}
	fmt.Fprintf(&b, "**Total Items:** %d  \n", len(idx.Items))
	fmt.Fprintf(&b, "**Total Size:** %s  \n", humanize.Bytes(uint64(max64(totalSize, 0))))
	fmt.Fprintf(&b, "**Described:** %d  \n", described)
	fmt.Fprintf(&b, "**Categorized:** %d\n\n", categorized)

	if hist := statusHistogram(idx); len(hist) > 0 {
		b.WriteString("## Status Overview\n\n")
		statuses := make([]string, 0, len(hist))
		for s := range hist {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			glyph := statusGlyph(s)
			if glyph == "" {
				glyph = s
			}
			fmt.Fprintf(&b, "- %s **%s:** %d items\n", glyph, titleCase(s), hist[s])
		}
		b.WriteString("\n")
	}

	sections, uncategorized := collate(idx, cfg)
	for _, sec := range sections {
		fmt.Fprintf(&b, "## %s\n\n", titleCase(sec.Category))
		for _, it := range sec.Items {
			b.WriteString(formatItemMarkdown(it))
			b.WriteString("\n\n")
		}
	}

	if len(uncategorized) > 0 {
		b.WriteString("## Other Items\n\n")
		for _, it := range uncategorized {
			b.WriteString(formatItemMarkdown(it))
			b.WriteString("\n\n")
		}
	}

	b.WriteString("---\n\n")
	b.WriteString("*Generated by Collectivist*\n")
	fmt.Fprintf(&b, "*Domain: %s • Items: %d*\n", nonEmpty(cfg.CollectionType, "unknown"), len(idx.Items))

	return b.String()
}

func formatItemMarkdown(it collection.Item) string {
	var b strings.Builder

	status := gitStatus(it)
	glyph := statusGlyph(status)
	if glyph != "" {
		fmt.Fprintf(&b, "### %s %s\n\n", glyph, it.ShortName)
	} else {
		fmt.Fprintf(&b, "### %s\n\n", it.ShortName)
	}

	b.WriteString(descriptionOf(it))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "*Path: `%s`*", it.Path)

	var interesting []string
	if url, ok := it.Metadata["remote_url"].(string); ok && url != "" {
		interesting = append(interesting, "Remote: "+url)
	}
	if it.SizeBytes > 0 {
		interesting = append(interesting, "Size: "+humanize.Bytes(uint64(it.SizeBytes)))
	}
	if len(interesting) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(interesting, " • "))
	}

	return b.String()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
