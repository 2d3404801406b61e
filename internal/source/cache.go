package source

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
	"github.com/roman-kulish/spectroscrub/internal/storage"
)

// PayloadCache stores payloads by result identifier. A miss is storage.ErrNoData.
type PayloadCache interface {
	Payload(ctx context.Context, resultID string) (*spectrogram.Payload, error)
	SavePayload(ctx context.Context, resultID string, p *spectrogram.Payload) error
}

// CachedSource is a read-through cache of spectrogram payloads in front of
// another Source. Images are never cached.
type CachedSource struct {
	next   Source
	cache  PayloadCache
	logger *slog.Logger
}

// NewCachedSource wraps next with cache.
func NewCachedSource(next Source, cache PayloadCache, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CachedSource{next: next, cache: cache, logger: logger}
}

func (s *CachedSource) SpectrogramData(ctx context.Context, d ResultDescriptor) (*spectrogram.Payload, error) {
	key := d.CacheKey()
	if key == "" {
		return s.next.SpectrogramData(ctx, d)
	}

	p, err := s.cache.Payload(ctx, key)
	switch {
	case err == nil:
		s.logger.Debug("spectrogram cache hit", slog.String("result_id", key))
		return p, nil
	case !errors.Is(err, storage.ErrNoData):
		s.logger.Warn("reading spectrogram cache", slog.String("result_id", key), slog.Any("error", err))
	}

	p, err = s.next.SpectrogramData(ctx, d)
	if err != nil {
		return nil, err
	}

	if err = s.cache.SavePayload(ctx, key, p); err != nil {
		s.logger.Warn("writing spectrogram cache", slog.String("result_id", key), slog.Any("error", err))
	}
	return p, nil
}

func (s *CachedSource) SpectrogramImage(ctx context.Context, d ResultDescriptor) (image.Image, error) {
	return s.next.SpectrogramImage(ctx, d)
}

var _ Source = (*CachedSource)(nil)
