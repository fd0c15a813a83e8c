package spider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/ae-stats-spider/internal/clock/system"
	collyfetcher "github.com/JakeFAU/ae-stats-spider/internal/fetcher/colly"
	"github.com/JakeFAU/ae-stats-spider/internal/hash/sha1"
	"github.com/JakeFAU/ae-stats-spider/internal/id/uuid"
	memorypublisher "github.com/JakeFAU/ae-stats-spider/internal/publisher/memory"
	"github.com/JakeFAU/ae-stats-spider/internal/spider"
	"github.com/JakeFAU/ae-stats-spider/internal/storage/local"
)

const aprilXLS = "april spreadsheet bytes"

func newPublisherSite(t *testing.T, missingSubPage bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
<a href="/monthly-page">Monthly A&amp;E Attendances and Emergency Admissions 2021-04</a>
</body></html>`))
	})
	if !missingSubPage {
		mux.HandleFunc("/monthly-page", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<ul><li><a href="/data/april.xls">Monthly A&amp;E April XLS Tables</a></li></ul>`))
		})
	}
	mux.HandleFunc("/data/april.xls", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(aprilXLS))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSpider(t *testing.T, baseURL, dataDir string, pub spider.Publisher) *spider.Spider {
	t.Helper()
	store, err := local.New(local.Config{BaseDir: dataDir})
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	s, err := spider.New(
		spider.Config{BaseURL: baseURL, Topic: "ae-runs"},
		spider.Deps{
			Fetcher:   collyfetcher.New(collyfetcher.Config{UserAgent: "ae-spider-test"}, logger),
			Store:     store,
			Hasher:    sha1.New(),
			Clock:     system.New(),
			IDs:       uuid.New(),
			Publisher: pub,
		},
		logger,
	)
	require.NoError(t, err)
	return s
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newPublisherSite(t, false)
	dataDir := t.TempDir()
	pub := memorypublisher.New()

	result, err := newSpider(t, srv.URL+"/", dataDir, pub).Run(context.Background())
	require.NoError(t, err)

	digest, err := sha1.New().Hash([]byte(aprilXLS))
	require.NoError(t, err)
	wantName := "april." + digest + ".xls"

	// #nosec G304 -- test reads from the controlled temp directory.
	stored, err := os.ReadFile(filepath.Join(dataDir, "monthly", wantName))
	require.NoError(t, err)
	assert.Equal(t, aprilXLS, string(stored))

	// #nosec G304 -- test reads from the controlled temp directory.
	raw, err := os.ReadFile(result.LogPath)
	require.NoError(t, err)
	var doc struct {
		Start string `json:"spider_start_datetime"`
		End   string `json:"spider_end_datetime"`
		Files []struct {
			URL          string `json:"url"`
			DataFilename string `json:"data_filename"`
		} `json:"data_files_discovered"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Files, 1)
	assert.Equal(t, srv.URL+"/data/april.xls", doc.Files[0].URL)
	assert.Equal(t, wantName, doc.Files[0].DataFilename)
	assert.LessOrEqual(t, doc.Start, doc.End)
	assert.Equal(t, dataDir, filepath.Dir(result.LogPath))

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ae-runs", msgs[0].Topic)
	assert.Contains(t, string(msgs[0].Data), `"file_count":1`)
}

func TestRunEndToEndIsIdempotentOnContent(t *testing.T) {
	t.Parallel()

	srv := newPublisherSite(t, false)
	dataDir := t.TempDir()
	s := newSpider(t, srv.URL+"/", dataDir, nil)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Log.DataFilesDiscovered, second.Log.DataFilesDiscovered)

	entries, err := os.ReadDir(filepath.Join(dataDir, "monthly"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunEndToEndSubPage404WritesNoLog(t *testing.T) {
	t.Parallel()

	srv := newPublisherSite(t, true)
	dataDir := t.TempDir()

	_, err := newSpider(t, srv.URL+"/", dataDir, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, spider.ErrFetch)

	logs, err := filepath.Glob(filepath.Join(dataDir, "log_*.json"))
	require.NoError(t, err)
	assert.Empty(t, logs)
}
