// Package obsidian implements the "obsidian" scanner for Obsidian
// vaults: markdown notes with YAML frontmatter, inline tags, and
// [[wiki links]]. Wiki links are recorded as bare identifier strings —
// never resolved into live references — per the note-graph's
// decoupled-from-filesystem design.
package obsidian

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Name is the registered scanner identifier.
const Name = "obsidian"

// minMarkdownFiles is the detection threshold mirroring the original
// plugin's "require at least a few markdown files" check.
const minMarkdownFiles = 3

var (
	tagPattern  = regexp.MustCompile(`(?:^|[^\w])#([a-zA-Z0-9_/-]+)`)
	wikiPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	headingPattern = regexp.MustCompile(`(?m)^\s*#+\s`)
)

// vaultExclusions extends the shared default exclusion set with
// Obsidian's own internal cache/plugin/theme directories.
var vaultExclusions = []string{".obsidian", ".git", ".DS_Store", "Thumbs.db"}

// Scanner scans an Obsidian vault.
type Scanner struct{}

// New constructs an obsidian Scanner.
func New() *Scanner { return &Scanner{} }

func init() { scanner.Default.Register(New()) }

func (s *Scanner) Name() string            { return Name }
func (s *Scanner) SupportedTypes() []string { return []string{"file"} }

func (s *Scanner) DefaultCategories() []string {
	return []string{
		"knowledge_base",
		"personal_notes",
		"research_notes",
		"project_docs",
		"creative_writing",
		"learning_notes",
		"utilities_misc",
	}
}

// Detect reports true when root has a .obsidian directory and at least
// minMarkdownFiles markdown files at its top level.
func (s *Scanner) Detect(root string) bool {
	info, err := os.Stat(filepath.Join(root, ".obsidian"))
	if err != nil || !info.IsDir() {
		return false
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			count++
		}
	}
	return count >= minMarkdownFiles
}

// Scan walks root recursively for markdown files, skipping vault
// internals and dotfiles; scannerConfig's exclude_hidden set to false
// keeps dotfiles.
func (s *Scanner) Scan(root string, scannerConfig map[string]any, preserve collection.PreserveMap) ([]collection.Item, error) {
	excludeHidden := true
	if v, ok := scannerConfig["exclude_hidden"].(bool); ok {
		excludeHidden = v
	}

	var items []collection.Item
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && isVaultExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		if excludeHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		item := scanner.StatItem(path, info, preserve)
		note := extractNoteMetadata(path)
		item.Metadata["file_extension"] = ".md"
		item.Metadata["tags"] = note.tags
		item.Metadata["links"] = note.wikiLinks
		item.Metadata["word_count"] = note.wordCount
		item.Metadata["has_frontmatter"] = note.hasFrontmatter
		item.Metadata["heading_count"] = note.headingCount
		items = append(items, item)
		return nil
	})
	return items, err
}

func isVaultExcluded(name string) bool {
	if scanner.IsExcluded(name, false) {
		return true
	}
	for _, ex := range vaultExclusions {
		if name == ex {
			return true
		}
	}
	return false
}

type noteMetadata struct {
	tags           []string
	wikiLinks      []string
	wordCount      int
	hasFrontmatter bool
	headingCount   int
}

func extractNoteMetadata(path string) noteMetadata {
	raw, err := os.ReadFile(path)
	if err != nil {
		return noteMetadata{}
	}
	content := string(raw)

	frontmatter, body := splitFrontmatter(content)
	return noteMetadata{
		tags:           extractTags(frontmatter, body),
		wikiLinks:      extractWikiLinks(body),
		wordCount:      len(strings.Fields(body)),
		hasFrontmatter: len(frontmatter) > 0,
		headingCount:   len(headingPattern.FindAllString(body, -1)),
	}
}

// splitFrontmatter parses a leading "---\n...\n---" YAML block, returning
// the decoded fields and the remaining body text. Invalid YAML yields a
// nil map and the whole content, unchanged, as the body.
func splitFrontmatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, "---") {
		return nil, content
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, content
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, content
	}
	return fm, strings.TrimSpace(parts[2])
}

func extractTags(frontmatter map[string]any, body string) []string {
	set := map[string]bool{}

	switch v := frontmatter["tags"].(type) {
	case []any:
		for _, t := range v {
			if str := strings.TrimSpace(toString(t)); str != "" {
				set[str] = true
			}
		}
	case string:
		for _, t := range strings.Split(v, ",") {
			if str := strings.TrimSpace(t); str != "" {
				set[str] = true
			}
		}
	}

	for _, m := range tagPattern.FindAllStringSubmatch(body, -1) {
		set[m[1]] = true
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// extractWikiLinks returns [[target]] / [[target|alias]] targets as bare
// identifier strings, discarding any display alias.
func extractWikiLinks(body string) []string {
	matches := wikiPattern.FindAllStringSubmatch(body, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		target := strings.SplitN(m[1], "|", 2)[0]
		links = append(links, strings.TrimSpace(target))
	}
	return links
}

// DescriptionPromptTemplate implements scanner.Scanner.
func (s *Scanner) DescriptionPromptTemplate() string {
	return `You are a technical documentation assistant. Generate a one-sentence description and category for an Obsidian note based on its content and metadata.

Available categories (choose ONE):
- knowledge_base: core knowledge, concepts, foundational information
- personal_notes: personal thoughts, reflections, journaling
- research_notes: research findings, studies, academic content
- project_docs: project documentation, plans, specifications
- creative_writing: stories, poems, creative writing, fiction
- learning_notes: study notes, tutorials, learning materials
- utilities_misc: templates, utilities, miscellaneous notes

Tags: {tags}
Word count: {word_count}
Has frontmatter: {has_frontmatter}
Links: {links}

Content:
{content}

Respond with JSON: {"description": "...", "category": "..."}`
}

// ContentForDescription returns the note body (frontmatter stripped) up
// to MaxContentGraphemes.
func (s *Scanner) ContentForDescription(item collection.Item) string {
	raw, err := os.ReadFile(item.Path)
	if err != nil {
		return item.ShortName
	}
	_, body := splitFrontmatter(string(raw))
	if len(body) > scanner.MaxContentGraphemes {
		body = body[:scanner.MaxContentGraphemes]
	}
	return body
}
