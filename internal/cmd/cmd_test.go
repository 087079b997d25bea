package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTempRoot chdirs into a fresh temp directory for the duration of the
// test and resets the package-level CLI state that setup() populates, so
// each test gets an independent collection root.
func withTempRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	current = nil
	flagVerbose = false
	flagConfig = ""
	return root
}

func TestAnalyzeWritesCollectionYAMLWithForcedType(t *testing.T) {
	root := withTempRoot(t)
	rootCmd.SetArgs([]string{"analyze", "--force-type", "repositories"})

	code := Execute()
	assert.Equal(t, 0, code)

	raw, err := os.ReadFile(filepath.Join(root, ".collection", "collection.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "collection_type: repositories")
}

func TestScanFailsWithoutPriorAnalyze(t *testing.T) {
	withTempRoot(t)
	rootCmd.SetArgs([]string{"scan"})

	code := Execute()
	assert.Equal(t, 1, code)
}

func TestUpdateRespectsSkipFlags(t *testing.T) {
	root := withTempRoot(t)
	rootCmd.SetArgs([]string{"update", "--force-type", "repositories", "--skip-describe", "--skip-render"})

	code := Execute()
	assert.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join(root, ".collection", "collection.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, ".collection", "index.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, ".collection", "collection.md"))
	assert.Error(t, err, "render was skipped, no markdown artifact expected")
}
