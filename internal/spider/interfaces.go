package spider

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/JakeFAU/ae-stats-spider/internal/manifest"
)

// Fetcher performs a GET and returns the raw response body.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers http.Header) ([]byte, error)
}

// Store places bytes under dir/name without ever exposing a partially written file.
type Store interface {
	Put(ctx context.Context, dir string, name string, data []byte) (string, error)
}

// BlobStore mirrors stored artifacts to a remote bucket and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// ManifestStore persists a finished run manifest.
type ManifestStore interface {
	SaveRun(ctx context.Context, runID string, run manifest.RunLog) error
}

// Publisher pushes run completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Metrics records crawl counters.
type Metrics interface {
	PageFetched(kind string)
	FileStored(category Category, size int)
	RunCompleted(start, end time.Time, files int)
}

// Hasher computes content digests for stored filenames.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
