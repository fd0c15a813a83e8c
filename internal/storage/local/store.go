// Package local implements the content-addressed filesystem store for downloaded data files.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Config captures the parameters for the local filesystem store.
type Config struct {
	// BaseDir is the data root holding the category directories and run logs.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store writes files beneath a data root. Every write lands in a temporary
// file first and is renamed into place, so readers never see a partial file.
type Store struct {
	fs      afero.Fs
	baseDir string
}

// New creates a store on the operating system filesystem.
func New(cfg Config) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), cfg)
}

// NewWithFs creates a store on the given filesystem.
func NewWithFs(fs afero.Fs, cfg Config) (*Store, error) {
	if fs == nil {
		return nil, errors.New("filesystem is required")
	}
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, errors.New("base directory is required")
	}

	info, err := fs.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := fs.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory %s is not a directory", cfg.BaseDir)
	}

	return &Store{
		fs:      fs,
		baseDir: filepath.Clean(cfg.BaseDir),
	}, nil
}

// BaseDir returns the data root.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Put writes data to baseDir/dir/name and returns the full path. An empty dir
// places the file at the data root.
func (s *Store) Put(ctx context.Context, dir string, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("name is required")
	}

	fullPath := filepath.Join(s.baseDir, dir, name)
	if rel, err := filepath.Rel(s.baseDir, fullPath); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected for %q", filepath.Join(dir, name))
	}
	targetDir := filepath.Dir(fullPath)
	if err := s.fs.MkdirAll(targetDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}

	tmp, err := afero.TempFile(s.fs, targetDir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", targetDir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		s.discard(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		s.discard(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := s.fs.Rename(tmpName, fullPath); err != nil {
		s.discard(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}
	return fullPath, nil
}

func (s *Store) discard(name string) {
	_ = s.fs.Remove(name)
}
