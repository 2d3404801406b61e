package spectrogram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	ErrInvalidPayload = errors.New("invalid spectrogram payload")
	ErrInvalidWidth   = errors.New("invalid raster width")
	ErrRasterTooLarge = errors.New("raster too large")
)

// Payload is the decoded response of the spectrogram data endpoint.
// Data is indexed as Data[f][t], with f the frequency bin and t the time frame.
type Payload struct {
	Data  [][]float64 `json:"data"`  // Magnitudes, Shape[0] rows of Shape[1] values
	Shape [2]int      `json:"shape"` // [frequency bins, time frames]
	Min   float64     `json:"min"`   // Lower bound used for normalization
	Max   float64     `json:"max"`   // Upper bound used for normalization
}

// Bounds is a normalization range.
type Bounds struct {
	Min float64
	Max float64
}

// DecodePayload reads a JSON payload and validates it.
func DecodePayload(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the shape matches the data and all values are finite.
func (p *Payload) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidPayload)
	}

	bins, frames := p.Shape[0], p.Shape[1]
	if bins < 1 || frames < 1 {
		return fmt.Errorf("%w: shape %v must be positive", ErrInvalidPayload, p.Shape)
	}
	if len(p.Data) != bins {
		return fmt.Errorf("%w: got %d rows, shape declares %d", ErrInvalidPayload, len(p.Data), bins)
	}
	if !isFinite(p.Min) || !isFinite(p.Max) {
		return fmt.Errorf("%w: bounds must be finite", ErrInvalidPayload)
	}
	if p.Max < p.Min {
		return fmt.Errorf("%w: max %g below min %g", ErrInvalidPayload, p.Max, p.Min)
	}

	for f, row := range p.Data {
		if len(row) != frames {
			return fmt.Errorf("%w: row %d has %d frames, shape declares %d", ErrInvalidPayload, f, len(row), frames)
		}
		for t, v := range row {
			if !isFinite(v) {
				return fmt.Errorf("%w: value at [%d][%d] is not finite", ErrInvalidPayload, f, t)
			}
		}
	}

	return nil
}

// FreqBins returns F, the number of frequency bins.
func (p *Payload) FreqBins() int {
	return p.Shape[0]
}

// TimeFrames returns T, the number of time frames.
func (p *Payload) TimeFrames() int {
	return p.Shape[1]
}

// Bounds returns the normalization range carried by the payload.
func (p *Payload) Bounds() Bounds {
	return Bounds{Min: p.Min, Max: p.Max}
}

// Normalize maps v into [0, 1] using the payload bounds.
func (p *Payload) Normalize(v float64) float64 {
	return p.Bounds().Normalize(v)
}

// RasterHeight returns the raster height for the given width, preserving
// the T:F aspect ratio.
func (p *Payload) RasterHeight(width int) int {
	h := int(math.Round(float64(width) * float64(p.FreqBins()) / float64(p.TimeFrames())))
	return max(1, h)
}

// Normalize maps v into [0, 1]. A zero-width range maps everything to 0.
func (b Bounds) Normalize(v float64) float64 {
	span := b.Max - b.Min
	if span <= 0 || math.IsNaN(span) {
		return 0
	}
	return clamp01((v - b.Min) / span)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
