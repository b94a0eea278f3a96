package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/gocard/internal/config/server"
)

func testConfig(t *testing.T, baseURL string) *config.BaseServerConfig {
	t.Helper()

	cfg := config.GetServerDefault()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "gocard.db")
	cfg.Remote.BaseURL = baseURL
	cfg.Connectivity.ProbeTimeout = "500ms"
	return &cfg
}

func TestBuildOffline(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "http://127.0.0.1:1/v1")
	cfg.Offline = true

	rt, err := Build(ctx, cfg, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.Monitor)
	assert.Equal(t, connectivity.Static(false), rt.Signal)

	_, err = rt.Router.FetchContent(ctx, "h1")
	assert.Error(t, err)
}

func TestBuildProbesRemote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/card/h1/content", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello world"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	rt, err := Build(ctx, testConfig(t, srv.URL+"/v1"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	require.NotNil(t, rt.Monitor)
	assert.True(t, rt.Signal.Online())

	fetched, err := rt.Router.FetchContent(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, card.Text("hello world"), fetched.Content)
	assert.True(t, rt.Cache.Exists(ctx, "h1"))
}

func TestOpenStoreRejectsUnknownDialect(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Database.Type = "mysql"

	_, err := OpenStore(context.Background(), cfg, log.NewNopLogger())
	assert.Error(t, err)
}
