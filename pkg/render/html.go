package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

//go:embed templates/collection.html.tmpl
var templateFS embed.FS

var (
	htmlTemplate     *template.Template
	htmlTemplateOnce sync.Once
	htmlTemplateErr  error
)

func getHTMLTemplate() (*template.Template, error) {
	htmlTemplateOnce.Do(func() {
		htmlTemplate, htmlTemplateErr = template.ParseFS(templateFS, "templates/collection.html.tmpl")
	})
	return htmlTemplate, htmlTemplateErr
}

type htmlRow struct {
	Name        string
	Description string
	Category    string
	StatusGlyph string
}

type htmlData struct {
	Name           string
	CollectionType string
	Overview       string
	TotalItems     int
	Described      int
	Categorized    int
	Rows           []htmlRow
}

// HTML renders the collection as a self-contained dashboard page.
func HTML(idx *collection.Index, cfg *collection.Config) (string, error) {
	tmpl, err := getHTMLTemplate()
	if err != nil {
		return "", fmt.Errorf("render: parsing html template: %w", err)
	}

	data := htmlData{
		Name:           nonEmpty(cfg.Name, "Collection"),
		CollectionType: nonEmpty(cfg.CollectionType, "unknown"),
		Overview:       overviewText(idx),
		TotalItems:     len(idx.Items),
	}

	sections, uncategorized := collate(idx, cfg)
	for _, sec := range sections {
		for _, it := range sec.Items {
			data.Categorized++
			data.Rows = append(data.Rows, rowFor(it))
		}
	}
	for _, it := range uncategorized {
		data.Rows = append(data.Rows, rowFor(it))
	}
	for _, it := range idx.Items {
		if it.Description != nil && *it.Description != "" {
			data.Described++
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: executing html template: %w", err)
	}
	return buf.String(), nil
}

func rowFor(it collection.Item) htmlRow {
	return htmlRow{
		Name:        it.ShortName,
		Description: descriptionOf(it),
		Category:    categoryOf(it),
		StatusGlyph: statusGlyph(gitStatus(it)),
	}
}
