package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/gocard/internal/cache"
	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/internal/preload"
	"github.com/mwantia/gocard/internal/remote"
	"github.com/mwantia/gocard/internal/router"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/store"
	"github.com/mwantia/gocard/pkg/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	content map[string]string
}

func (f *fakeRemote) Fetch(ctx context.Context, hash string) ([]byte, string, error) {
	body, ok := f.content[hash]
	if !ok {
		return nil, "", &remote.Error{StatusCode: http.StatusNotFound, Body: "no such card"}
	}
	return []byte(body), "text/plain", nil
}

func (f *fakeRemote) FetchMetadata(ctx context.Context, hash string) (card.Record, error) {
	if _, ok := f.content[hash]; !ok {
		return card.Record{}, &remote.Error{StatusCode: http.StatusNotFound}
	}
	return card.Record{Hash: hash, ContentType: "text/plain"}, nil
}

func (f *fakeRemote) Search(ctx context.Context, query string) ([]card.SearchResult, error) {
	return []card.SearchResult{{Hash: "remote", RelevanceScore: 1}}, nil
}

func (f *fakeRemote) ListMetadata(ctx context.Context, page, pageSize int) (card.Page, error) {
	var records []card.Record
	for hash := range f.content {
		records = append(records, card.Record{Hash: hash, ContentType: "text/plain"})
	}
	return card.Page{Records: records}, nil
}

type testAPI struct {
	url    string
	cache  *cache.Manager
	signal *connectivity.Switch
	gate   *readiness.Gate
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "gocard.db")})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))

	rem := &fakeRemote{content: map[string]string{"h1": "hello world", "h2": "second"}}
	m := cache.NewManager(s, cache.DefaultConfig(), nil)
	signal := connectivity.NewSwitch(true)
	gate := readiness.New()

	srv := NewServer(Deps{
		Router:      router.New(m, rem, signal, nil),
		Cache:       m,
		Preload:     preload.NewCoordinator(m, rem, gate, preload.Config{}, nil),
		Gate:        gate,
		Signal:      signal,
		Health:      s.Health,
		WaitTimeout: 20 * time.Millisecond,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		m.Wait()
		_ = s.Close()
	})

	return &testAPI{url: ts.URL, cache: m, signal: signal, gate: gate}
}

func (a *testAPI) do(t *testing.T, method, path string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, a.url+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestContentEndpoint(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(t, http.MethodGet, "/v1/content/h1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", body)
	assert.Equal(t, "remote", resp.Header.Get("X-Gocard-Source"))

	resp, _ = a.do(t, http.MethodGet, "/v1/content/h1")
	assert.Equal(t, "cache", resp.Header.Get("X-Gocard-Source"))

	resp, _ = a.do(t, http.MethodGet, "/v1/content/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	a.signal.Set(false)
	resp, _ = a.do(t, http.MethodGet, "/v1/content/h2")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearchWaitsForGateWithTimeout(t *testing.T) {
	a := newTestAPI(t)

	resp, _ := a.do(t, http.MethodGet, "/v1/search")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	start := time.Now()
	resp, body := a.do(t, http.MethodGet, "/v1/search?query=hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	var out struct {
		Items []card.SearchResult `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "remote", out.Items[0].Hash)
}

func TestPreloadAndReady(t *testing.T) {
	a := newTestAPI(t)

	resp, _ := a.do(t, http.MethodGet, "/v1/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body := a.do(t, http.MethodPost, "/v1/preload?force=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result preloadResponse
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, 2, result.Records)

	resp, _ = a.do(t, http.MethodGet, "/v1/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = a.do(t, http.MethodGet, "/v1/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Equal(t, int64(2), stats.TotalItems)
}

func TestDeleteAndClear(t *testing.T) {
	a := newTestAPI(t)

	a.do(t, http.MethodGet, "/v1/content/h1")

	resp, _ := a.do(t, http.MethodDelete, "/v1/cache/h1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(t, http.MethodDelete, "/v1/cache/h1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	a.do(t, http.MethodGet, "/v1/content/h2")
	resp, _ = a.do(t, http.MethodDelete, "/v1/cache")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, a.cache.Stats(context.Background()).TotalItems)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","online":true}`, body)

	resp, body = a.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}
