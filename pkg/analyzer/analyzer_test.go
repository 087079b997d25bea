package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model/modeltest"
	"github.com/go-collectivist/collectivist/pkg/scanner"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/fallback"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/repositories"
)

func TestAnalyzeForceTypeSkipsClassification(t *testing.T) {
	root := t.TempDir()
	stateDir := filepath.Join(root, ".collection")
	bus := events.New()

	a := New(scanner.Default, &modeltest.Stub{}, bus)
	cfg, err := a.Analyze(context.Background(), root, stateDir, "repositories", false)
	require.NoError(t, err)
	assert.Equal(t, "repositories", cfg.CollectionType)
	assert.FileExists(t, filepath.Join(stateDir, ConfigFileName))
}

func TestAnalyzeDoesNotOverwriteExistingConfig(t *testing.T) {
	root := t.TempDir()
	stateDir := filepath.Join(root, ".collection")
	require.NoError(t, os.MkdirAll(stateDir, 0o755))
	existing := "collection_type: fallback\nname: preexisting\npath: " + root + "\ncategories: [miscellaneous]\nexclude_hidden: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, ConfigFileName), []byte(existing), 0o644))

	bus := events.New()
	a := New(scanner.Default, &modeltest.Stub{}, bus)
	cfg, err := a.Analyze(context.Background(), root, stateDir, "", false)
	require.NoError(t, err)
	assert.Equal(t, "preexisting", cfg.Name)
}

func TestAnalyzeFallsBackToRepositoriesOnGitPresence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo-one", ".git"), 0o755))
	stateDir := filepath.Join(root, ".collection")

	bus := events.New()
	stub := &modeltest.Stub{ProbeErr: nil, Queue: []modeltest.StubResult{{Text: "not json"}}}
	a := New(scanner.Default, stub, bus)

	cfg, err := a.Analyze(context.Background(), root, stateDir, "", false)
	require.NoError(t, err)
	assert.Equal(t, "repositories", cfg.CollectionType)
}

func TestAnalyzeFallsBackToFallbackWithNoSignals(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.unknownext"), []byte("x"), 0o644))
	stateDir := filepath.Join(root, ".collection")

	bus := events.New()
	stub := &modeltest.Stub{Queue: []modeltest.StubResult{{Text: "garbage"}}}
	a := New(scanner.Default, stub, bus)

	cfg, err := a.Analyze(context.Background(), root, stateDir, "", false)
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.CollectionType)
	assert.Contains(t, cfg.Categories, "miscellaneous")
}
