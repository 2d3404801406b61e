// Package source fetches spectrogram artifacts for processed results.
package source

import (
	"context"
	"image"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

// Source provides the two spectrogram artifacts of a result: the raw payload
// used for interactive rendering and the pre-rendered static image.
type Source interface {
	// SpectrogramData returns the validated payload, or an error matching
	// ErrDataUnavailable.
	SpectrogramData(ctx context.Context, d ResultDescriptor) (*spectrogram.Payload, error)
	// SpectrogramImage returns the static spectrogram image.
	SpectrogramImage(ctx context.Context, d ResultDescriptor) (image.Image, error)
}
