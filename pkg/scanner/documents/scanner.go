// Package documents implements the "documents" scanner for folders of
// text, markdown, office, and PDF files.
package documents

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Name is the registered scanner identifier.
const Name = "documents"

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".rst": true, ".tex": true, ".log": true,
}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".odt": true, ".rtf": true,
	".ppt": true, ".pptx": true, ".xls": true, ".xlsx": true,
}

// Scanner scans a directory of documents.
type Scanner struct{}

// New constructs a documents Scanner.
func New() *Scanner { return &Scanner{} }

func init() { scanner.Default.Register(New()) }

func (s *Scanner) Name() string            { return Name }
func (s *Scanner) SupportedTypes() []string { return []string{"file"} }

func (s *Scanner) DefaultCategories() []string {
	return []string{
		"research_papers",
		"business_docs",
		"legal_documents",
		"educational_materials",
		"technical_docs",
		"personal_docs",
		"reports_presentations",
		"utilities_misc",
	}
}

// Detect reports true when at least half of root's files have a known
// document/text extension.
func (s *Scanner) Detect(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	total, docs := 0, 0
	for _, e := range entries {
		if e.IsDir() || scanner.IsExcluded(e.Name(), true) {
			continue
		}
		total++
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if textExtensions[ext] || documentExtensions[ext] {
			docs++
		}
	}
	if total == 0 {
		return false
	}
	return float64(docs)/float64(total) >= 0.5
}

// Scan walks root's files (non-recursive), treating each as one item.
func (s *Scanner) Scan(root string, _ map[string]any, preserve collection.PreserveMap) ([]collection.Item, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	items := make([]collection.Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || scanner.IsExcluded(e.Name(), true) {
			continue
		}
		path := filepath.Join(root, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}

		item := scanner.StatItem(path, info, preserve)
		ext := strings.ToLower(filepath.Ext(e.Name()))
		item.Metadata["file_extension"] = ext
		if textExtensions[ext] {
			text := scanner.ReadHeadText(path, scanner.MaxContentGraphemes*4)
			item.Metadata["word_count"] = countWords(text)
		}
		items = append(items, item)
	}
	return items, nil
}

func countWords(text string) int {
	return len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	}))
}

// DescriptionPromptTemplate implements scanner.Scanner.
func (s *Scanner) DescriptionPromptTemplate() string {
	return `You are a document librarian. Generate a one-sentence description and category for a document.

Available categories (choose ONE):
- research_papers: academic papers, research writeups
- business_docs: business plans, memos, proposals
- legal_documents: contracts, agreements, compliance documents
- educational_materials: course materials, tutorials, textbooks
- technical_docs: technical specs, manuals, API documentation
- personal_docs: personal records, letters, journals
- reports_presentations: reports, slide decks, presentations
- utilities_misc: everything else

Document: {name}
Extension: {file_extension}
Word count: {word_count}

Content:
{content}

Respond with JSON: {"description": "...", "category": "..."}`
}

// ContentForDescription extracts up to MaxContentGraphemes of text.
// PDF/office formats are out of scope for direct extraction (see
// spec.md's Non-goals) — they fall back to a filename-only synopsis.
func (s *Scanner) ContentForDescription(item collection.Item) string {
	ext := strings.ToLower(filepath.Ext(item.Path))
	if textExtensions[ext] {
		return scanner.ReadHeadText(item.Path, scanner.MaxContentGraphemes)
	}
	return "Document: " + item.ShortName + " (" + strings.TrimPrefix(ext, ".") + ", " + strconv.FormatInt(item.SizeBytes, 10) + " bytes)"
}
