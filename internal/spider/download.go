package spider

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const spreadsheetContentType = "application/octet-stream"

func (s *Spider) download(ctx context.Context, logger *zap.Logger, rawURL string, category Category) (string, error) {
	body, err := s.deps.Fetcher.Get(ctx, rawURL, nil)
	if err != nil {
		return "", err
	}
	s.deps.Metrics.PageFetched(PageKindData)

	digest, err := s.deps.Hasher.Hash(body)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", rawURL, err)
	}
	name, err := StoredFilename(rawURL, digest)
	if err != nil {
		return "", err
	}
	stored, err := s.deps.Store.Put(ctx, string(category), name, body)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	if s.deps.Mirror != nil {
		objectPath := path.Join(s.cfg.MirrorPrefix, string(category), filepath.Base(stored))
		uri, err := s.deps.Mirror.PutObject(ctx, objectPath, spreadsheetContentType, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("mirror %s: %w", objectPath, err)
		}
		logger.Debug("mirrored", zap.String("uri", uri))
	}

	s.deps.Metrics.FileStored(category, len(body))
	logger.Info("downloaded",
		zap.String("url", rawURL),
		zap.String("path", stored),
		zap.Int("bytes", len(body)),
	)
	return stored, nil
}

type nopMetrics struct{}

func (nopMetrics) PageFetched(string)                 {}
func (nopMetrics) FileStored(Category, int)           {}
func (nopMetrics) RunCompleted(_, _ time.Time, _ int) {}
