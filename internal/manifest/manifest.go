// Package manifest builds and serializes the per-run log of discovered files.
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// TimestampLayout renders ISO-8601 timestamps with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// DiscoveredFile is one successfully stored data file.
type DiscoveredFile struct {
	URL          string `json:"url"`
	DataFilename string `json:"data_filename"`
}

// RunLog is the manifest of one spider run.
type RunLog struct {
	SpiderStart         time.Time
	SpiderEnd           time.Time
	DataFilesDiscovered []DiscoveredFile
}

// wireRunLog fixes the key order of the serialized manifest.
type wireRunLog struct {
	SpiderStart         string           `json:"spider_start_datetime"`
	SpiderEnd           string           `json:"spider_end_datetime"`
	DataFilesDiscovered []DiscoveredFile `json:"data_files_discovered"`
}

// New starts a run log at start.
func New(start time.Time) *RunLog {
	return &RunLog{
		SpiderStart:         start,
		DataFilesDiscovered: []DiscoveredFile{},
	}
}

// Record appends a stored file. Only the basename of storedPath is kept.
func (r *RunLog) Record(rawURL, storedPath string) {
	r.DataFilesDiscovered = append(r.DataFilesDiscovered, DiscoveredFile{
		URL:          rawURL,
		DataFilename: filepath.Base(storedPath),
	})
}

// Finish stamps the end of the run.
func (r *RunLog) Finish(end time.Time) {
	r.SpiderEnd = end
}

// Filename is the manifest file name, keyed by the run start.
func (r RunLog) Filename() string {
	return fmt.Sprintf("log_%s.json", r.SpiderStart.Format(TimestampLayout))
}

// MarshalJSON renders the manifest with a stable key order.
func (r RunLog) MarshalJSON() ([]byte, error) {
	files := r.DataFilesDiscovered
	if files == nil {
		files = []DiscoveredFile{}
	}
	return json.Marshal(wireRunLog{
		SpiderStart:         r.SpiderStart.Format(TimestampLayout),
		SpiderEnd:           r.SpiderEnd.Format(TimestampLayout),
		DataFilesDiscovered: files,
	})
}

// Encode returns the indented manifest document.
func (r RunLog) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal run log: %w", err)
	}
	return append(data, '\n'), nil
}
