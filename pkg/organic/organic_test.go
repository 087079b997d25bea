package organic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/model/modeltest"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

type fakeScanner struct{}

func (fakeScanner) Name() string                                       { return "repositories" }
func (fakeScanner) SupportedTypes() []string                           { return []string{"dir"} }
func (fakeScanner) DefaultCategories() []string                        { return []string{"dev_tools", "utilities_misc"} }
func (fakeScanner) Detect(string) bool                                 { return true }
func (fakeScanner) DescriptionPromptTemplate() string                  { return "{content}" }
func (fakeScanner) ContentForDescription(collection.Item) string       { return "" }
func (fakeScanner) Scan(string, map[string]any, collection.PreserveMap) ([]collection.Item, error) {
	return nil, nil
}

func registryWith(s scanner.Scanner) *scanner.Registry {
	reg := scanner.New()
	reg.Register(s)
	return reg
}

func TestDetectNewFindsRecentEntriesAndSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".collection"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".collection", "index.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new-file.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("hi"), 0o644))

	found, err := DetectNew(dir, time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(dir, "new-file.txt"), found[0])
}

func TestDetectNewExcludesOldEntries(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old-file.txt")
	require.NoError(t, os.WriteFile(old, []byte("hi"), 0o644))
	require.NoError(t, os.Chtimes(old, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))

	found, err := DetectNew(dir, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnalyzePlacementFallsBackToHeuristicOnUnparsableReply(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-ai-agent"), []byte("x"), 0o644))

	cfg := &collection.Config{CollectionType: "repositories", Categories: []string{"ai_llm_agents", "utilities_misc"}}
	idx := &collection.Index{}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) { return "not json", nil }}
	p := New(registryWith(fakeScanner{}), stub, events.New())

	placement := p.AnalyzePlacement(context.Background(), filepath.Join(dir, "my-ai-agent"), dir, cfg, idx)
	assert.Equal(t, "ai_llm_agents", placement.Category)
	assert.LessOrEqual(t, placement.Confidence, 0.4)
}

func TestAnalyzePlacementPrefersStructuralFolderOverModelSuggestion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools"), 0o755))
	existing := filepath.Join(dir, "tools", "existing-repo")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new-thing"), []byte("x"), 0o644))

	cat := "dev_tools"
	idx := &collection.Index{Items: []collection.Item{{Path: existing, Category: &cat}}}
	cfg := &collection.Config{CollectionType: "repositories", Categories: []string{"dev_tools", "utilities_misc"}}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		b, _ := json.Marshal(map[string]any{"category": "dev_tools", "suggested_folder": "somewhere_else", "confidence": 0.9, "reasoning": "x"})
		return string(b), nil
	}}
	p := New(registryWith(fakeScanner{}), stub, events.New())

	placement := p.AnalyzePlacement(context.Background(), filepath.Join(dir, "new-thing"), dir, cfg, idx)
	assert.Equal(t, "tools", placement.SuggestedFolder)
	assert.True(t, placement.StructuralUsed)
}

func TestProcessNewAutoFilesAboveThresholdAndLeavesLowConfidenceInPlace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "confident-item"), []byte("x"), 0o644))

	cfg := &collection.Config{CollectionType: "repositories", Categories: []string{"dev_tools", "utilities_misc"}}
	idx := &collection.Index{}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		b, _ := json.Marshal(map[string]any{"category": "dev_tools", "suggested_folder": "dev_tools", "confidence": 0.9, "reasoning": "x"})
		return string(b), nil
	}}
	p := New(registryWith(fakeScanner{}), stub, events.New())

	results, err := p.ProcessNew(context.Background(), dir, cfg, idx, true, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].AutoFiled)
	assert.FileExists(t, filepath.Join(dir, "dev_tools", "confident-item"))

	lowDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(lowDir, "unsure-item"), []byte("x"), 0o644))

	results, err = p.ProcessNew(context.Background(), lowDir, cfg, idx, true, 0.95)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].AutoFiled)
	assert.FileExists(t, filepath.Join(lowDir, "unsure-item"))
}

func TestProcessNewRefusesToOverwriteExistingTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dev_tools"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev_tools", "item"), []byte("existing"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item"), []byte("new"), 0o644))

	cfg := &collection.Config{CollectionType: "repositories", Categories: []string{"dev_tools", "utilities_misc"}}
	idx := &collection.Index{}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		b, _ := json.Marshal(map[string]any{"category": "dev_tools", "suggested_folder": "dev_tools", "confidence": 0.9, "reasoning": "x"})
		return string(b), nil
	}}
	p := New(registryWith(fakeScanner{}), stub, events.New())

	results, err := p.ProcessNew(context.Background(), dir, cfg, idx, true, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].AutoFiled)
	assert.Error(t, results[0].Err)

	content, err := os.ReadFile(filepath.Join(dir, "dev_tools", "item"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(content))
}
