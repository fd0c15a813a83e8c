package spider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/ae-stats-spider/internal/manifest"
)

// Config controls a Spider.
type Config struct {
	// BaseURL is the index page listing monthly and weekly sub-pages.
	BaseURL string
	// MirrorPrefix is prepended to object paths when a BlobStore mirror is set.
	MirrorPrefix string
	// Topic receives a RunNotification when a Publisher is set.
	Topic string
}

// Deps groups the collaborators of a Spider. Fetcher, Store, Hasher, Clock and
// IDs are required; the rest are optional side effects.
type Deps struct {
	Fetcher   Fetcher
	Store     Store
	Hasher    Hasher
	Clock     Clock
	IDs       IDGenerator
	Mirror    BlobStore
	Manifests ManifestStore
	Publisher Publisher
	Metrics   Metrics
}

// Spider runs the crawl, download and manifest pipeline sequentially.
type Spider struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

// New constructs a Spider.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Spider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Hasher == nil:
		return nil, errors.New("hasher is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	case deps.IDs == nil:
		return nil, errors.New("id generator is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spider{cfg: cfg, deps: deps, logger: logger}, nil
}

// Run executes one complete spider run. The first error aborts the run and no
// manifest is written; files already stored stay on disk.
func (s *Spider) Run(ctx context.Context) (Result, error) {
	runID, err := s.deps.IDs.NewID()
	if err != nil {
		return Result{}, err
	}
	logger := s.logger.With(zap.String("run_id", runID))
	run := manifest.New(s.deps.Clock.Now())
	logger.Info("spider run started", zap.String("base_url", s.cfg.BaseURL))

	disc, err := s.discover(ctx, logger)
	if err != nil {
		return Result{}, fmt.Errorf("discover: %w", err)
	}

	batches := []struct {
		category Category
		urls     []string
	}{
		{Monthly, disc.MonthlyData},
		{Weekly, disc.WeeklyData},
	}
	for _, b := range batches {
		for _, rawURL := range b.urls {
			stored, err := s.download(ctx, logger, rawURL, b.category)
			if err != nil {
				return Result{}, fmt.Errorf("download %s: %w", rawURL, err)
			}
			run.Record(rawURL, stored)
		}
	}
	run.Finish(s.deps.Clock.Now())

	logPath, err := s.writeManifest(ctx, *run)
	if err != nil {
		return Result{}, err
	}
	result := Result{RunID: runID, Log: *run, LogPath: logPath}

	if err := s.afterRun(ctx, result, disc); err != nil {
		return Result{}, err
	}
	s.deps.Metrics.RunCompleted(run.SpiderStart, run.SpiderEnd, len(run.DataFilesDiscovered))
	logger.Info("spider run finished",
		zap.String("log_path", logPath),
		zap.Int("files", len(run.DataFilesDiscovered)),
		zap.Duration("elapsed", run.SpiderEnd.Sub(run.SpiderStart)),
	)
	return result, nil
}

// Discover performs the two-level traversal without downloading anything.
func (s *Spider) Discover(ctx context.Context) (Discovery, error) {
	return s.discover(ctx, s.logger)
}

// Download stores the data file at rawURL under category and returns its path.
func (s *Spider) Download(ctx context.Context, rawURL string, category Category) (string, error) {
	return s.download(ctx, s.logger, rawURL, category)
}

func (s *Spider) writeManifest(ctx context.Context, run manifest.RunLog) (string, error) {
	data, err := run.Encode()
	if err != nil {
		return "", err
	}
	logPath, err := s.deps.Store.Put(ctx, "", run.Filename(), data)
	if err != nil {
		return "", fmt.Errorf("write run log: %w", err)
	}
	return logPath, nil
}

func (s *Spider) afterRun(ctx context.Context, result Result, disc Discovery) error {
	if s.deps.Manifests != nil {
		if err := s.deps.Manifests.SaveRun(ctx, result.RunID, result.Log); err != nil {
			return fmt.Errorf("save run manifest: %w", err)
		}
	}
	if s.deps.Publisher != nil {
		note := RunNotification{
			RunID:        result.RunID,
			LogFilename:  filepath.Base(result.LogPath),
			FileCount:    len(result.Log.DataFilesDiscovered),
			SpiderStart:  result.Log.SpiderStart,
			SpiderEnd:    result.Log.SpiderEnd,
			MonthlyFiles: len(disc.MonthlyData),
			WeeklyFiles:  len(disc.WeeklyData),
		}
		if _, err := s.deps.Publisher.Publish(ctx, s.cfg.Topic, note); err != nil {
			return fmt.Errorf("publish run notification: %w", err)
		}
	}
	return nil
}
