package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/model/modeltest"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

type stubScanner struct {
	items []collection.Item
}

func (s stubScanner) Name() string                 { return "repositories" }
func (s stubScanner) SupportedTypes() []string      { return []string{"dir"} }
func (s stubScanner) DefaultCategories() []string   { return []string{"dev_tools", "utilities_misc"} }
func (s stubScanner) Detect(string) bool            { return true }
func (s stubScanner) DescriptionPromptTemplate() string            { return "{content}" }
func (s stubScanner) ContentForDescription(collection.Item) string { return "content" }
func (s stubScanner) Scan(string, map[string]any, collection.PreserveMap) ([]collection.Item, error) {
	return s.items, nil
}

func registryWith(s scanner.Scanner) *scanner.Registry {
	reg := scanner.New()
	reg.Register(s)
	return reg
}

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, StateDirName), 0o755))
	return root
}

func writeConfig(t *testing.T, root string) {
	t.Helper()
	cfgYAML := "collection_type: repositories\nname: test\npath: " + root + "\ncategories: [dev_tools, utilities_misc]\nexclude_hidden: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, StateDirName, "collection.yaml"), []byte(cfgYAML), 0o644))
}

func TestRunEndToEndManualMode(t *testing.T) {
	root := setupRoot(t)
	writeConfig(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo-a"), 0o755))

	reg := registryWith(stubScanner{items: []collection.Item{
		{Path: filepath.Join(root, "repo-a"), ShortName: "repo-a", Type: "dir", SizeBytes: 100},
	}})
	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		return `{"description": "a repo", "category": "dev_tools"}`, nil
	}}
	bus := events.New()
	o := New(reg, stub, bus, runregistry.NewStore(t.TempDir()))

	run, err := o.Run(context.Background(), root, Options{Mode: ModeManual})
	require.NoError(t, err)
	assert.Equal(t, collection.RunStateCompleted, run.State)
	assert.FileExists(t, filepath.Join(root, StateDirName, "collection.md"))
	assert.FileExists(t, filepath.Join(root, StateDirName, "collection.json"))
	assert.FileExists(t, filepath.Join(root, StateDirName, "collection.html"))
	assert.FileExists(t, filepath.Join(root, StateDirName, "collection.nu"))
}

func TestScheduledModeForcesOrganicOff(t *testing.T) {
	opts := Options{Mode: ModeScheduled}
	mask, autoFileAllowed := opts.resolve()
	assert.False(t, mask.Organic)
	assert.False(t, autoFileAllowed)
	assert.True(t, mask.Analyze)
	assert.True(t, mask.Scan)
}

func TestOrganicModeForcesEverythingOn(t *testing.T) {
	opts := Options{Mode: ModeOrganic, SkipRender: true, SkipScan: true}
	mask, autoFileAllowed := opts.resolve()
	assert.True(t, mask.Organic)
	assert.True(t, mask.Analyze)
	assert.True(t, mask.Scan)
	assert.True(t, mask.Describe)
	assert.True(t, mask.Render)
	assert.True(t, autoFileAllowed)
}

func TestManualModeRespectsSkipFlags(t *testing.T) {
	opts := Options{Mode: ModeManual, SkipDescribe: true, SkipRender: true}
	mask, _ := opts.resolve()
	assert.True(t, mask.Organic)
	assert.True(t, mask.Analyze)
	assert.True(t, mask.Scan)
	assert.False(t, mask.Describe)
	assert.False(t, mask.Render)
}

func TestRunFailsFatallyWhenNoConfigAndAnalyzeSkipped(t *testing.T) {
	root := setupRoot(t)
	reg := registryWith(stubScanner{})
	stub := &modeltest.Stub{}
	o := New(reg, stub, events.New(), nil)

	run, err := o.Run(context.Background(), root, Options{Mode: ModeManual, SkipAnalyze: true})
	require.Error(t, err)
	assert.Equal(t, collection.RunStateFailed, run.State)
	assert.Contains(t, run.LastError, "analyze")
}

func TestRunFailsWhenModelUnreachableBeforeDescribe(t *testing.T) {
	root := setupRoot(t)
	writeConfig(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo-a"), 0o755))

	reg := registryWith(stubScanner{items: []collection.Item{
		{Path: filepath.Join(root, "repo-a"), ShortName: "repo-a", Type: "dir", SizeBytes: 10},
	}})
	stub := &modeltest.Stub{ProbeErr: assert.AnError}
	o := New(reg, stub, events.New(), nil)

	run, err := o.Run(context.Background(), root, Options{Mode: ModeManual, SkipRender: true})
	require.Error(t, err)
	assert.Equal(t, collection.RunStateFailed, run.State)
	assert.Contains(t, run.LastError, "describe")
}

func TestRunRejectsUnresolvedScannerType(t *testing.T) {
	root := setupRoot(t)
	writeConfig(t, root)

	reg := scanner.New() // empty: "repositories" never registered
	stub := &modeltest.Stub{}
	o := New(reg, stub, events.New(), nil)

	run, err := o.Run(context.Background(), root, Options{Mode: ModeManual})
	require.Error(t, err)
	assert.Equal(t, collection.RunStateFailed, run.State)
}

func TestRunPersistsRunRecord(t *testing.T) {
	root := setupRoot(t)
	writeConfig(t, root)

	reg := registryWith(stubScanner{})
	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) { return "{}", nil }}
	runsDir := t.TempDir()
	o := New(reg, stub, events.New(), runregistry.NewStore(runsDir))

	run, err := o.Run(context.Background(), root, Options{Mode: ModeManual})
	require.NoError(t, err)

	stored, err := o.Runs.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, collection.RunStateCompleted, stored.State)
}
