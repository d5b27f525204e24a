// Package upload validates, compresses and stores batches of image files, and
// undoes a batch when any part of it fails.
package upload

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"catalog/apperr"
	"catalog/metrics"
	"catalog/models"
	"catalog/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxFileSize = 10 << 20
	DefaultMaxFiles    = 10
)

// AllowedTypes are the image formats the pipeline accepts.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// File is one uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// Compressor re-encodes image bytes. *imaging.Compressor implements it.
type Compressor interface {
	Compress(data []byte, contentType string) ([]byte, error)
}

type Pipeline struct {
	store       storage.Storage
	compressor  Compressor
	limits      Limits
	concurrency int
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

type Option func(*Pipeline)

func WithLimits(l Limits) Option {
	return func(p *Pipeline) {
		if l.MaxFileSize > 0 {
			p.limits.MaxFileSize = l.MaxFileSize
		}
		if l.MaxFiles > 0 {
			p.limits.MaxFiles = l.MaxFiles
		}
	}
}

// WithConcurrency sets how many files are compressed and stored at once.
// The default of 1 processes files strictly in input order.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(store storage.Storage, compressor Compressor, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		compressor:  compressor,
		limits:      Limits{MaxFileSize: DefaultMaxFileSize, MaxFiles: DefaultMaxFiles},
		concurrency: 1,
		logger:      log.Logger.With().Str("component", "upload").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Limits() Limits {
	return p.limits
}

// Validate checks the whole batch without touching storage. The returned files
// carry the content type sniffed from their bytes, which replaces whatever the
// client declared.
func (p *Pipeline) Validate(files []File) ([]File, error) {
	if len(files) > p.limits.MaxFiles {
		return nil, apperr.Validation("too many files: got %d, at most %d allowed", len(files), p.limits.MaxFiles)
	}
	out := make([]File, len(files))
	for i, f := range files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		switch {
		case len(f.Data) == 0:
			return nil, apperr.Validation("file %q is empty", name)
		case int64(len(f.Data)) > p.limits.MaxFileSize:
			return nil, apperr.Validation("file %q exceeds the maximum size of %d MB", name, p.limits.MaxFileSize>>20)
		}
		ct, ok := detect(f.Data)
		if !ok {
			return nil, apperr.Validation("file %q has unsupported content type %q (allowed: %s)",
				name, ct, strings.Join(AllowedTypes, ", "))
		}
		out[i] = File{Name: name, ContentType: ct, Data: f.Data}
	}
	return out, nil
}

func detect(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	for _, allowed := range AllowedTypes {
		if mt.Is(allowed) {
			return allowed, true
		}
	}
	return mt.String(), false
}

// Upload validates, compresses and stores files under ns and returns their
// assets in input order. Nothing is stored when validation fails. When a file
// fails later, no further file is started, every asset already stored is
// deleted once in-flight work has settled, and an upload error is returned.
func (p *Pipeline) Upload(ctx context.Context, ns storage.Namespace, files []File) ([]models.ImageAsset, error) {
	start := time.Now()

	valid, err := p.Validate(files)
	if err != nil {
		p.metrics.Batch("invalid", 0)
		return nil, err
	}
	if len(valid) == 0 {
		return []models.ImageAsset{}, nil
	}

	assets := make([]models.ImageAsset, len(valid))
	stored := make([]bool, len(valid))
	var failed atomic.Bool

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, f := range valid {
		i, f := i, f
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			asset, err := p.store1(ctx, ns, f)
			if err != nil {
				failed.Store(true)
				return fmt.Errorf("file %q: %w", f.Name, err)
			}
			assets[i] = asset
			stored[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var done []models.ImageAsset
		for i, ok := range stored {
			if ok {
				done = append(done, assets[i])
			}
		}
		p.logger.Warn().Err(err).Str("namespace", string(ns)).
			Int("files", len(valid)).Int("stored", len(done)).
			Msg("upload batch failed, rolling back")
		p.Rollback(ctx, done)
		p.metrics.Batch("failed", 0)
		return nil, apperr.Upload(err, "upload images")
	}

	p.metrics.Batch("success", time.Since(start).Seconds())
	p.logger.Debug().Str("namespace", string(ns)).Int("files", len(assets)).
		Dur("took", time.Since(start)).Msg("upload batch stored")
	return assets, nil
}

func (p *Pipeline) store1(ctx context.Context, ns storage.Namespace, f File) (models.ImageAsset, error) {
	compressed, err := p.compressor.Compress(f.Data, f.ContentType)
	if err != nil {
		return models.ImageAsset{}, err
	}
	asset, err := p.store.Put(ctx, storage.NewKey(ns, f.ContentType), compressed, f.ContentType)
	if err != nil {
		return models.ImageAsset{}, err
	}
	p.metrics.Stored(string(ns), len(f.Data), len(compressed))
	return asset, nil
}

// Rollback issues compensating deletes for assets stored by a request that
// later failed. Every asset is attempted; failures are logged and left behind.
func (p *Pipeline) Rollback(ctx context.Context, assets []models.ImageAsset) {
	p.remove(ctx, "rollback", assets)
}

// Discard deletes assets that a successful write has replaced or removed.
// Same best-effort rules as Rollback.
func (p *Pipeline) Discard(ctx context.Context, assets []models.ImageAsset) {
	p.remove(ctx, "discard", assets)
}

func (p *Pipeline) remove(ctx context.Context, reason string, assets []models.ImageAsset) {
	for _, a := range assets {
		if a.StorageKey == "" {
			continue
		}
		err := p.store.Delete(ctx, a.StorageKey)
		p.metrics.Deleted(reason, err)
		if err != nil {
			p.logger.Error().Err(err).Str("key", a.StorageKey).Str("reason", reason).
				Msg("failed to delete asset, object left in storage")
		}
	}
}
