package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/ae-stats-spider/internal/config"
)

func testConfig(baseURL, dataDir string) config.Config {
	return config.Config{
		Spider:  config.SpiderConfig{BaseURL: baseURL, UserAgent: "app-test"},
		Storage: config.StorageConfig{DataDir: dataDir},
	}
}

func TestAppRunWritesManifestAndMetrics(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		gotUA string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotUA = r.Header.Get("User-Agent")
		mu.Unlock()
		_, _ = w.Write([]byte(`<p>No statistics published yet.</p>`))
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	cfg := testConfig(srv.URL, dataDir)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "ae_spider.prom")

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Log.DataFilesDiscovered)
	mu.Lock()
	assert.Equal(t, "app-test", gotUA)
	mu.Unlock()
	assert.FileExists(t, result.LogPath)

	// #nosec G304 -- test reads from the controlled temp directory.
	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), "ae_spider_last_run_files 0"), string(prom))
}

func TestAppRunPropagatesFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(srv.URL, t.TempDir())
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "ae_spider.prom")
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close() //nolint:errcheck // nothing to release

	_, err = a.Run(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, cfg.Metrics.Textfile)
}

func TestNewRejectsBadDSN(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://stats.example/", t.TempDir())
	cfg.DB.DSN = "::not a dsn::"
	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}
