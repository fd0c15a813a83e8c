// Package postgres persists spider run manifests in Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/ae-stats-spider/internal/manifest"
)

var validTablePrefix = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTablePrefix = "spider"

// ManifestStoreConfig controls the Postgres connection pool used for manifests.
type ManifestStoreConfig struct {
	DSN             string
	TablePrefix     string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// ManifestStore writes one row per run into {prefix}_runs and one row per
// stored file into {prefix}_files.
type ManifestStore struct {
	pool       pool
	runsTable  string
	filesTable string
}

// NewManifestStore connects to Postgres using the provided config.
func NewManifestStore(ctx context.Context, cfg ManifestStoreConfig) (*ManifestStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewManifestStoreWithPool(p, cfg.TablePrefix)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewManifestStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewManifestStoreWithPool(p pool, tablePrefix string) (*ManifestStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if tablePrefix == "" {
		tablePrefix = defaultTablePrefix
	}
	if !validTablePrefix.MatchString(tablePrefix) {
		return nil, fmt.Errorf("invalid table prefix %q", tablePrefix)
	}
	return &ManifestStore{
		pool:       p,
		runsTable:  tablePrefix + "_runs",
		filesTable: tablePrefix + "_files",
	}, nil
}

// Close releases the underlying pool resources.
func (s *ManifestStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the manifest tables when they are missing.
func (s *ManifestStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	run_id TEXT PRIMARY KEY,
	spider_start TIMESTAMPTZ NOT NULL,
	spider_end TIMESTAMPTZ NOT NULL,
	file_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS %[2]s (
	run_id TEXT NOT NULL REFERENCES %[1]s (run_id),
	position INTEGER NOT NULL,
	url TEXT NOT NULL,
	data_filename TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
)`, s.runsTable, s.filesTable)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure manifest schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run and its files in one transaction.
func (s *ManifestStore) SaveRun(ctx context.Context, runID string, run manifest.RunLog) (err error) {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin manifest tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	runQuery := fmt.Sprintf(
		`INSERT INTO %s (run_id, spider_start, spider_end, file_count) VALUES ($1,$2,$3,$4)`,
		s.runsTable,
	)
	if _, err = tx.Exec(ctx, runQuery, runID, run.SpiderStart, run.SpiderEnd, len(run.DataFilesDiscovered)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	fileQuery := fmt.Sprintf(
		`INSERT INTO %s (run_id, position, url, data_filename) VALUES ($1,$2,$3,$4)`,
		s.filesTable,
	)
	for i, f := range run.DataFilesDiscovered {
		if _, err = tx.Exec(ctx, fileQuery, runID, i, f.URL, f.DataFilename); err != nil {
			return fmt.Errorf("insert file %s: %w", f.DataFilename, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit manifest tx: %w", err)
	}
	return nil
}
