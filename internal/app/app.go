// Package app builds the spider and its optional collaborators from Config
// and owns their lifetimes.
package app

import (
	"context"
	"fmt"
	"time"

	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/ae-stats-spider/internal/clock/system"
	"github.com/JakeFAU/ae-stats-spider/internal/config"
	collyfetcher "github.com/JakeFAU/ae-stats-spider/internal/fetcher/colly"
	"github.com/JakeFAU/ae-stats-spider/internal/hash/sha1"
	"github.com/JakeFAU/ae-stats-spider/internal/id/uuid"
	"github.com/JakeFAU/ae-stats-spider/internal/metrics"
	"github.com/JakeFAU/ae-stats-spider/internal/publisher/pubsub"
	"github.com/JakeFAU/ae-stats-spider/internal/spider"
	"github.com/JakeFAU/ae-stats-spider/internal/storage/gcs"
	"github.com/JakeFAU/ae-stats-spider/internal/storage/local"
	"github.com/JakeFAU/ae-stats-spider/internal/storage/postgres"
)

// App holds the spider and every resource that must be released after a run.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	spider  *spider.Spider
	metrics *metrics.Recorder
	closers []func() error
}

// New wires an App. Optional integrations are enabled only when configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, metrics: metrics.New()}

	store, err := local.New(local.Config{BaseDir: cfg.Storage.DataDir})
	if err != nil {
		return nil, fmt.Errorf("init local store: %w", err)
	}
	logger.Info("storing data files", zap.String("data_dir", store.BaseDir()))

	deps := spider.Deps{
		Fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Spider.UserAgent,
			Timeout:   cfg.RequestTimeout(),
		}, logger.Named("fetcher")),
		Store:   store,
		Hasher:  sha1.New(),
		Clock:   system.New(),
		IDs:     uuid.New(),
		Metrics: a.metrics,
	}

	if err := a.wireOptional(ctx, &deps); err != nil {
		_ = a.Close()
		return nil, err
	}

	s, err := spider.New(spider.Config{
		BaseURL:      cfg.Spider.BaseURL,
		MirrorPrefix: cfg.Storage.GCSPrefix,
		Topic:        cfg.PubSub.TopicName,
	}, deps, logger.Named("spider"))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init spider: %w", err)
	}
	a.spider = s
	return a, nil
}

func (a *App) wireOptional(ctx context.Context, deps *spider.Deps) error {
	cfg := a.cfg
	if cfg.Storage.GCSBucket != "" {
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		mirror, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return fmt.Errorf("init gcs mirror: %w", err)
		}
		deps.Mirror = mirror
		a.logger.Info("mirroring data files to gcs", zap.String("bucket", cfg.Storage.GCSBucket))
	}

	if cfg.DB.DSN != "" {
		manifests, err := postgres.NewManifestStore(ctx, postgres.ManifestStoreConfig{
			DSN:             cfg.DB.DSN,
			TablePrefix:     cfg.DB.TablePrefix,
			MaxConns:        cfg.DB.MaxConns,
			MaxConnLifetime: 5 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("init manifest store: %w", err)
		}
		a.closers = append(a.closers, func() error { manifests.Close(); return nil })
		if cfg.DB.EnsureSchema {
			if err := manifests.EnsureSchema(ctx); err != nil {
				return err
			}
		}
		deps.Manifests = manifests
		a.logger.Info("recording run manifests in postgres", zap.String("table_prefix", cfg.DB.TablePrefix))
	}

	if cfg.PubSub.TopicName != "" {
		pub, err := pubsub.New(ctx, pubsub.Config{
			ProjectID: cfg.PubSub.ProjectID,
			TopicName: cfg.PubSub.TopicName,
		})
		if err != nil {
			return fmt.Errorf("init pubsub: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		deps.Publisher = pub
		a.logger.Info("publishing run notifications", zap.String("topic", cfg.PubSub.TopicName))
	}
	return nil
}

// Run executes one spider run and, on success, writes the metrics textfile.
func (a *App) Run(ctx context.Context) (spider.Result, error) {
	result, err := a.spider.Run(ctx)
	if err != nil {
		return spider.Result{}, err
	}
	if a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			return spider.Result{}, err
		}
	}
	return result, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
