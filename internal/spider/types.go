package spider

import (
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/ae-stats-spider/internal/manifest"
)

// Category partitions index pages, sub-pages and stored files.
type Category string

// Category values double as storage subdirectory names.
const (
	Monthly Category = "monthly"
	Weekly  Category = "weekly"
)

// Page kinds reported to Metrics.
const (
	PageKindIndex = "index"
	PageKindSub   = "subpage"
	PageKindData  = "data"
)

var (
	// ErrFetch marks any failed GET: transport failure or non-2xx status.
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks a data URL whose final path segment yields no filename.
	ErrParse = errors.New("unparseable data url")
)

// FetchError describes a failed GET.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying transport error, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrFetch as a match so callers can test with errors.Is.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Discovery is the output of the two-level traversal.
type Discovery struct {
	MonthlyPages []string
	WeeklyPages  []string
	MonthlyData  []string
	WeeklyData   []string
}

// Result is the success value of a run.
type Result struct {
	RunID   string
	Log     manifest.RunLog
	LogPath string
}

// RunNotification is the payload published when a run completes.
type RunNotification struct {
	RunID        string    `json:"run_id"`
	LogFilename  string    `json:"log_filename"`
	FileCount    int       `json:"file_count"`
	SpiderStart  time.Time `json:"spider_start_datetime"`
	SpiderEnd    time.Time `json:"spider_end_datetime"`
	MonthlyFiles int       `json:"monthly_files"`
	WeeklyFiles  int       `json:"weekly_files"`
}
