package spectrogram

import (
	"math"
	"slices"
)

const (
	DefaultLowPercentile  = 5.0
	DefaultHighPercentile = 95.0

	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20
)

// BoundsMode selects how the renderer picks its normalization range.
type BoundsMode string

const (
	BoundsPayload    BoundsMode = "payload"    // Use the min/max shipped with the payload
	BoundsPercentile BoundsMode = "percentile" // Use 5th/95th percentiles of the data
)

// PercentileBounds returns the lo-th and hi-th percentiles of the payload
// values. Small payloads and inverted percentiles yield the payload bounds.
func PercentileBounds(p *Payload, lo, hi float64) Bounds {
	count := p.FreqBins() * p.TimeFrames()
	if count < minimumSampleCount || lo >= hi {
		return p.Bounds()
	}

	values := make([]float64, 0, count)
	for _, row := range p.Data {
		values = append(values, row...)
	}
	slices.Sort(values)

	return Bounds{
		Min: values[percentileIndex(lo, len(values))],
		Max: values[percentileIndex(hi, len(values))],
	}
}

func percentileIndex(pct float64, n int) int {
	i := int(math.Round(clamp01(pct/100) * float64(n-1)))
	return min(max(i, 0), n-1)
}
