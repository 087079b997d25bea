package runregistry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

func TestWriteThenGetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	run := &collection.Run{RunID: "run-1", Mode: "manual", State: collection.RunStateQueued, QueuedAt: time.Now().UTC()}
	require.NoError(t, s.Write(run))

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, collection.RunStateQueued, got.State)
}

func TestWriteIsAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Write(&collection.Run{RunID: "run-1", QueuedAt: time.Now().UTC()}))

	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "run-1.json"), entries[0])
}

func TestListOrdersByQueuedAtDescending(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	older := time.Now().Add(-time.Hour).UTC()
	newer := time.Now().UTC()
	require.NoError(t, s.Write(&collection.Run{RunID: "old", QueuedAt: older}))
	require.NoError(t, s.Write(&collection.Run{RunID: "new", QueuedAt: newer}))

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "old", runs[1].RunID)
}

func TestWriteRejectsEmptyRunID(t *testing.T) {
	s := NewStore(t.TempDir())
	err := s.Write(&collection.Run{QueuedAt: time.Now()})
	assert.Error(t, err)
}
