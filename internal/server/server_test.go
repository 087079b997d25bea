package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model/modeltest"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, pipeline.StateDirName), 0o755))

	cfg := &collection.Config{
		CollectionType: "repositories",
		Name:           "test collection",
		RootPath:       root,
		Categories:     []string{"active", "archive"},
		Schedule: collection.ScheduleConfig{
			Enabled:      collection.ScheduleEnabled{Bool: false},
			IntervalDays: 7,
		},
	}
	raw, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, pipeline.StateDirName, "collection.yaml"), raw, 0o644))

	bus := events.New()
	runs := runregistry.NewStore(filepath.Join(root, pipeline.StateDirName, "runs"))
	orch := pipeline.New(scanner.Default, &modeltest.Stub{}, bus, runs).WithLogger(zap.NewNop())

	return New(root, orch, bus, runs, zap.NewNop()), root
}

func TestHandleGetSchedule(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/collections/default/schedule", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var sched collection.ScheduleConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Equal(t, 7, sched.IntervalDays)
	assert.False(t, bool(sched.Enabled.Bool))
}

func TestHandlePutScheduleRejectsInvalidPayload(t *testing.T) {
	srv, _ := testServer(t)

	body := bytes.NewBufferString(`{"interval_days": -5}`)
	req := httptest.NewRequest("PUT", "/collections/default/schedule", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHandleRunSchedulesAndIsPollable(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/collections/default/run", bytes.NewBufferString(`{"skip_describe": true, "skip_render": true}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, 202, rec.Code)
	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, string(collection.RunStateQueued), resp.State)

	assert.Eventually(t, func() bool {
		getReq := httptest.NewRequest("GET", "/runs/"+resp.RunID, nil)
		getRec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(getRec, getReq)
		if getRec.Code != 200 {
			return false
		}
		var run collection.Run
		if err := json.Unmarshal(getRec.Body.Bytes(), &run); err != nil {
			return false
		}
		return run.State == collection.RunStateCompleted || run.State == collection.RunStateFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleGetRunMissingReturnsNotFound(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/runs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestHandleListProviders(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/config/llm/providers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var providers []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	assert.Contains(t, providers, "openai")
	assert.Contains(t, providers, "ollama")
}

func TestHandleCreateAndGetCollection(t *testing.T) {
	srv, _ := testServer(t)
	other := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(other, pipeline.StateDirName), 0o755))

	body := bytes.NewBufferString(`{"id": "second", "root": "` + other + `"}`)
	req := httptest.NewRequest("POST", "/collections/", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, 201, rec.Code)

	getReq := httptest.NewRequest("GET", "/collections/second", nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	require.Equal(t, 200, getRec.Code)
	assert.Contains(t, getRec.Body.String(), `"root":"`+other+`"`)
}

func TestHandleCreateCollectionRejectsDuplicateID(t *testing.T) {
	srv, root := testServer(t)

	body := bytes.NewBufferString(`{"id": "default", "root": "` + root + `"}`)
	req := httptest.NewRequest("POST", "/collections/", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 409, rec.Code)
}

func TestHandleDeleteCollection(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("DELETE", "/collections/default", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, 204, rec.Code)

	getReq := httptest.NewRequest("GET", "/collections/default", nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	assert.Equal(t, 404, getRec.Code)
}

func TestHandleGetLLMConfigRedactsKey(t *testing.T) {
	srv, root := testServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, pipeline.StateDirName, "collectivist.yaml"),
		[]byte("llm:\n  provider: openai\n  api_key: secret-value\n  model: gpt-4o-mini\n"), 0o644))

	req := httptest.NewRequest("GET", "/config/llm", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-value")
	assert.Contains(t, rec.Body.String(), `"has_key":true`)
}

func TestHandleTestLLMConfigReportsProbeFailure(t *testing.T) {
	srv, _ := testServer(t)

	body := bytes.NewBufferString(`{"provider": "openai", "api_key": "x", "base_url": "http://127.0.0.1:0", "model": "m"}`)
	req := httptest.NewRequest("POST", "/config/llm/test", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp testLLMResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}
