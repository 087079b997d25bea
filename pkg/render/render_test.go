package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

func strp(s string) *string { return &s }

func testIndex() *collection.Index {
	overview := "A handful of repositories."
	return &collection.Index{
		CollectionOverview: &overview,
		Items: []collection.Item{
			{
				Path: "/c/big-repo", ShortName: "big-repo", SizeBytes: 5000,
				Description: strp("A large repository."), Category: strp("dev_tools"),
				Metadata: map[string]any{"git_status": "up_to_date"},
			},
			{
				Path: "/c/small-repo", ShortName: "small-repo", SizeBytes: 10,
				Description: strp("A small repository."), Category: strp("dev_tools"),
				Metadata: map[string]any{"git_status": "updates_available"},
			},
			{
				Path: "/c/mystery", ShortName: "mystery", SizeBytes: 1,
			},
		},
	}
}

func testConfig() *collection.Config {
	return &collection.Config{
		Name:           "My Repos",
		CollectionType: "repositories",
		Categories:     []string{"dev_tools", "utilities_misc"},
	}
}

func TestMarkdownCollatesBySizeWithinCategory(t *testing.T) {
	md := Markdown(testIndex(), testConfig())

	bigIdx := strings.Index(md, "big-repo")
	smallIdx := strings.Index(md, "small-repo")
	require.True(t, bigIdx >= 0 && smallIdx >= 0)
	assert.Less(t, bigIdx, smallIdx, "larger item should render before smaller item within its category")
}

func TestMarkdownUsesCanonicalASCIIStatusGlyphs(t *testing.T) {
	md := Markdown(testIndex(), testConfig())
	assert.Contains(t, md, "[OK]")
	assert.Contains(t, md, "[^]")
}

func TestMarkdownPlacesUncategorizedUnderOtherItems(t *testing.T) {
	md := Markdown(testIndex(), testConfig())
	otherIdx := strings.Index(md, "## Other Items")
	mysteryIdx := strings.Index(md, "mystery")
	require.True(t, otherIdx >= 0 && mysteryIdx >= 0)
	assert.Less(t, otherIdx, mysteryIdx)
}

func TestJSONRoundTripsItemCount(t *testing.T) {
	b, err := JSON(testIndex(), testConfig())
	require.NoError(t, err)

	var doc jsonDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, 3, doc.Collection.TotalItems)
	assert.Len(t, doc.Items, 3)
}

func TestHTMLRendersEachItemName(t *testing.T) {
	out, err := HTML(testIndex(), testConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "big-repo")
	assert.Contains(t, out, "small-repo")
	assert.Contains(t, out, "mystery")
}

func TestHTMLEscapesItemContent(t *testing.T) {
	idx := &collection.Index{Items: []collection.Item{
		{Path: "/c/x", ShortName: "<script>evil()</script>", Description: strp("desc")},
	}}
	out, err := HTML(idx, testConfig())
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>evil()</script>")
}

func TestNushellIsAPureStringNoExecution(t *testing.T) {
	out := Nushell(testIndex(), testConfig())
	assert.Contains(t, out, "open index.yaml")
	assert.Contains(t, out, "def show-stats")
}

func TestUnknownStatusRendersEmptyGlyph(t *testing.T) {
	assert.Equal(t, "", statusGlyph("something_weird"))
	assert.Equal(t, "", statusGlyph(""))
}
