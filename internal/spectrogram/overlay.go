package spectrogram

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const indicatorWidth = 2

// Indicator is the vertical playback line drawn over the raster.
type Indicator struct {
	X       float64 // Horizontal offset in raster pixels
	Height  int     // Line height, equal to the raster height
	Visible bool
}

// Rect is the horizontal extent of the on-screen raster.
type Rect struct {
	Left  float64
	Width float64
}

// IndicatorAt places the indicator for the given playback position.
// An unknown or non-positive duration pins it to the left edge.
func IndicatorAt(current, duration float64, width, height int) Indicator {
	ind := Indicator{Height: height, Visible: true}
	if duration > 0 && !math.IsInf(duration, 0) {
		ind.X = clamp01(current/duration) * float64(width)
	}
	return ind
}

// ScrubProgress converts a pointer x coordinate into a playback fraction in [0, 1].
func ScrubProgress(pointerX float64, rect Rect) float64 {
	if !(rect.Width > 0) {
		return 0
	}
	return clamp01((pointerX - rect.Left) / rect.Width)
}

// Composite returns a copy of raster with the indicator drawn on top.
func Composite(raster *image.RGBA, ind Indicator, c color.Color) *image.RGBA {
	out := image.NewRGBA(raster.Bounds())
	draw.Draw(out, out.Bounds(), raster, raster.Bounds().Min, draw.Src)
	if !ind.Visible {
		return out
	}

	b := out.Bounds()
	x := b.Min.X + int(math.Round(ind.X))
	// keep the line inside the raster at the right edge
	if x > b.Max.X-indicatorWidth {
		x = b.Max.X - indicatorWidth
	}
	line := image.Rect(x, b.Min.Y, x+indicatorWidth, b.Min.Y+min(ind.Height, b.Dy())).Intersect(b)
	draw.Draw(out, line, image.NewUniform(c), image.Point{}, draw.Over)
	return out
}
