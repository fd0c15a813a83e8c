// Package metrics exposes Prometheus collectors for spider runs. A run is a
// short-lived batch job, so the collectors are written to a node-exporter
// textfile instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JakeFAU/ae-stats-spider/internal/spider"
)

// Recorder implements spider.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	pagesTotal       *prometheus.CounterVec
	filesTotal       *prometheus.CounterVec
	bytesTotal       *prometheus.CounterVec
	lastSuccess      prometheus.Gauge
	runDuration      prometheus.Gauge
	lastRunFileCount prometheus.Gauge
}

// New registers the spider collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		pagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ae_spider_pages_fetched_total",
				Help: "Total number of documents fetched, labeled by kind (index, subpage, data).",
			},
			[]string{"kind"},
		),
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ae_spider_files_stored_total",
				Help: "Total number of data files stored, labeled by category.",
			},
			[]string{"category"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ae_spider_bytes_stored_total",
				Help: "Total number of data file bytes stored, labeled by category.",
			},
			[]string{"category"},
		),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ae_spider_last_success_timestamp_seconds",
			Help: "Unix time at which the last successful run finished.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ae_spider_last_run_duration_seconds",
			Help: "Wall-clock duration of the last successful run.",
		}),
		lastRunFileCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ae_spider_last_run_files",
			Help: "Number of data files recorded in the last run manifest.",
		}),
	}
}

// PageFetched counts one fetched document.
func (r *Recorder) PageFetched(kind string) {
	r.pagesTotal.WithLabelValues(kind).Inc()
}

// FileStored counts one stored data file.
func (r *Recorder) FileStored(category spider.Category, size int) {
	r.filesTotal.WithLabelValues(string(category)).Inc()
	r.bytesTotal.WithLabelValues(string(category)).Add(float64(size))
}

// RunCompleted records the outcome of a successful run.
func (r *Recorder) RunCompleted(start, end time.Time, files int) {
	r.lastSuccess.Set(float64(end.Unix()))
	r.runDuration.Set(end.Sub(start).Seconds())
	r.lastRunFileCount.Set(float64(files))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes the collectors in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
