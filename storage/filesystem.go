package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog/apperr"
	"catalog/models"
)

var _ Storage = (*Filesystem)(nil)

// Filesystem keeps objects in a local directory that the HTTP server exposes as
// static files under publicURL.
type Filesystem struct {
	baseDir   string
	publicURL string
}

func NewFilesystem(baseDir, publicURL string) (*Filesystem, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Filesystem{baseDir: baseDir, publicURL: publicURL}, nil
}

func (s *Filesystem) Dir() string {
	return s.baseDir
}

func (s *Filesystem) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *Filesystem) Put(ctx context.Context, key string, data []byte, contentType string) (models.ImageAsset, error) {
	path, err := s.path(key)
	if err != nil {
		return models.ImageAsset{}, apperr.Storage(err, "put %s", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return models.ImageAsset{}, apperr.Storage(err, "ensure dir for %s", key)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return models.ImageAsset{}, apperr.Storage(err, "write %s", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return models.ImageAsset{}, apperr.Storage(err, "rename %s", key)
	}
	return models.ImageAsset{URL: joinURL(s.publicURL, key), StorageKey: key}, nil
}

func (s *Filesystem) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return apperr.Storage(err, "delete %s", key)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.Storage(err, "delete %s", key)
	}
	return nil
}
