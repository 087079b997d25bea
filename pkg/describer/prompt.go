package describer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// placeholderPattern matches the documented `{field}` interpolation
// syntax used by every scanner's DescriptionPromptTemplate.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// renderTemplate fills tmpl's `{field}` placeholders from fields.
// Any placeholder not present in fields — whether it's one of the
// documented optional names the scanner simply didn't populate, or an
// unrecognized name entirely — resolves to the empty string rather
// than erroring.
func renderTemplate(tmpl string, fields map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		return fields[name]
	})
}

// buildFields assembles the documented optional-field set for one item
// from its metadata bag, defaulting every absent key to "".
func buildFields(item collection.Item, content string) map[string]string {
	fields := map[string]string{
		"content":         content,
		"name":            item.ShortName,
		"size":            strconv.FormatInt(item.SizeBytes, 10),
		"word_count":      "",
		"file_extension":  "",
		"metadata_tags":   "",
		"has_frontmatter": "",
		"link_count":      "",
		"page_count":      "",
		"author":          "",
		"title":           "",
		"git_status":      "",
		"remote_url":      "",
		"branch":          "",
	}

	for _, key := range []string{"word_count", "file_extension", "has_frontmatter", "page_count", "author", "title", "git_status", "remote_url", "branch"} {
		if v, ok := item.Metadata[key]; ok {
			fields[key] = fmt.Sprintf("%v", v)
		}
	}
	if tags, ok := item.Metadata["tags"].([]string); ok {
		fields["metadata_tags"] = strings.Join(tags, ", ")
	}
	if links, ok := item.Metadata["links"].([]string); ok {
		fields["link_count"] = strconv.Itoa(len(links))
	}

	return fields
}

// fewShotBlock renders up to 5 already-described items as few-shot
// examples, in insertion order.
func fewShotBlock(examples []collection.Item) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ex := range examples {
		desc := ""
		if ex.Description != nil {
			desc = *ex.Description
		}
		cat := ""
		if ex.Category != nil {
			cat = *ex.Category
		}
		fmt.Fprintf(&b, "- %s: %s [category: %s]\n", ex.ShortName, desc, cat)
	}
	return b.String()
}
