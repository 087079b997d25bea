package describer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/model/modeltest"
)

type stubScanner struct{}

func (stubScanner) Name() string               { return "stub" }
func (stubScanner) SupportedTypes() []string    { return []string{"file"} }
func (stubScanner) DefaultCategories() []string { return []string{"a", "misc"} }
func (stubScanner) Detect(string) bool          { return true }
func (stubScanner) DescriptionPromptTemplate() string {
	return "Name: {name}\nContent: {content}"
}
func (stubScanner) ContentForDescription(item collection.Item) string {
	if item.ShortName == "empty" {
		return "   "
	}
	return "some content about " + item.ShortName
}
func (stubScanner) Scan(string, map[string]any, collection.PreserveMap) ([]collection.Item, error) {
	return nil, nil
}

func newIndex(names ...string) *collection.Index {
	items := make([]collection.Item, len(names))
	for i, n := range names {
		items[i] = collection.Item{Path: "/c/" + n, ShortName: n}
	}
	return &collection.Index{Items: items}
}

func TestRunDescribesAllItems(t *testing.T) {
	idx := newIndex("alpha", "beta")
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	stub := &modeltest.Stub{Reply: func(messages []model.Message) (string, error) {
		b, _ := json.Marshal(map[string]string{"description": "a description", "category": "a"})
		return string(b), nil
	}}

	d := New(stub, events.New())
	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 2, func(*collection.Index) error { return nil })
	require.NoError(t, err)

	for _, it := range idx.Items {
		require.NotNil(t, it.Description)
		assert.Equal(t, "a description", *it.Description)
		require.NotNil(t, it.Category)
		assert.Equal(t, "a", *it.Category)
	}
	require.NotNil(t, idx.CollectionOverview)
}

func TestRunSkipsEmptyContent(t *testing.T) {
	idx := newIndex("empty")
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	stub := &modeltest.Stub{}
	d := New(stub, events.New())
	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 1, func(*collection.Index) error { return nil })
	require.NoError(t, err)

	assert.Nil(t, idx.Items[0].Description)
	assert.Equal(t, 0, stub.Calls())
}

func TestRunFallsBackToSinkCategoryOnUnparsableReply(t *testing.T) {
	idx := newIndex("gamma")
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	stub := &modeltest.Stub{Queue: []modeltest.StubResult{{Text: "not json at all"}}}
	d := New(stub, events.New())
	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 1, func(*collection.Index) error { return nil })
	require.NoError(t, err)

	require.NotNil(t, idx.Items[0].Description)
	assert.Equal(t, "not json at all", *idx.Items[0].Description)
	require.NotNil(t, idx.Items[0].Category)
	assert.Equal(t, "misc", *idx.Items[0].Category)
}

func TestRunAllItemsFailedSkipsOverview(t *testing.T) {
	idx := newIndex("delta")
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		return "", assertError
	}}
	d := New(stub, events.New())
	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 1, func(*collection.Index) error { return nil })
	require.NoError(t, err)

	assert.Nil(t, idx.Items[0].Description)
	assert.Nil(t, idx.CollectionOverview)
}

func TestRunSaveFailureIsFatal(t *testing.T) {
	idx := newIndex("epsilon")
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		b, _ := json.Marshal(map[string]string{"description": "d", "category": "a"})
		return string(b), nil
	}}
	d := New(stub, events.New())

	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 1, func(*collection.Index) error {
		return assertError
	})
	require.Error(t, err)
	var perr *collection.DescriberError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, collection.DescriberErrPersistIO, perr.Kind)
}

func TestRunIsConcurrencySafeAcrossWorkers(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = "item"
	}
	idx := newIndex(names...)
	// give distinct paths so merge-by-index still works
	for i := range idx.Items {
		idx.Items[i].Path = idx.Items[i].Path + string(rune('a'+i))
	}
	cfg := &collection.Config{Categories: []string{"a", "misc"}}

	var saveMu sync.Mutex
	saveCount := 0
	stub := &modeltest.Stub{Reply: func([]model.Message) (string, error) {
		b, _ := json.Marshal(map[string]string{"description": "d", "category": "a"})
		return string(b), nil
	}}
	d := New(stub, events.New())
	err := d.Run(context.Background(), stubScanner{}, cfg, idx, 5, func(*collection.Index) error {
		saveMu.Lock()
		saveCount++
		saveMu.Unlock()
		return nil
	})
	require.NoError(t, err)
	// one save per described item, plus the final save that persists the overview
	assert.Equal(t, 21, saveCount)
}

var assertError = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
