package spectrogram

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
)

// RenderConfig holds the configuration options for raster generation
type RenderConfig struct {
	ColorTheme     ColorTheme // Color scheme for magnitudes
	ColorMapSize   int        // Number of colors in gradient (0 for default)
	BoundsMode     BoundsMode // Normalization range source
	LowPercentile  float64    // Lower percentile for BoundsPercentile
	HighPercentile float64    // Upper percentile for BoundsPercentile
	Background     color.Color
	NoAnnotations  bool // Skip the axis labels
	MaxPixels      int  // Upper bound on width*height (0 for default)
}

// DefaultMaxPixels caps a raster at 128 MiB of RGBA.
const DefaultMaxPixels = 32 << 20

// Renderer turns spectrogram payloads into false-color rasters. It is safe
// for concurrent use.
type Renderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

// NewRenderer creates a renderer, filling zero config values with defaults.
func NewRenderer(config RenderConfig) *Renderer {
	if config.ColorTheme == "" {
		config.ColorTheme = ViridisTheme
	}
	if config.ColorMapSize == 0 {
		config.ColorMapSize = DefaultColorMapSize
	}
	if config.BoundsMode == "" {
		config.BoundsMode = BoundsPayload
	}
	if config.LowPercentile == 0 && config.HighPercentile == 0 {
		config.LowPercentile = DefaultLowPercentile
		config.HighPercentile = DefaultHighPercentile
	}
	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultMaxPixels
	}
	if config.Background == nil {
		config.Background = color.Black
	}

	return &Renderer{
		colorMap: NewColorMapperWithSize(config.ColorTheme, config.ColorMapSize),
		config:   config,
	}
}

// ColorMap returns the mapper used for cell colors.
func (r *Renderer) ColorMap() *ColorMapper {
	return r.colorMap
}

// Render draws payload into a new raster width pixels wide. Time runs left to
// right, frequency bin 0 sits on the bottom row. Cells are sized up with ceil
// so that adjacent cells overlap rather than leave gaps.
func (r *Renderer) Render(p *Payload, width int) (*image.RGBA, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// float64 so the product cannot overflow int
	height := max(1, math.Round(float64(width)*float64(p.FreqBins())/float64(p.TimeFrames())))
	if float64(width)*height > float64(r.config.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d payload at width %d exceeds %d pixels",
			ErrRasterTooLarge, p.FreqBins(), p.TimeFrames(), width, r.config.MaxPixels)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, p.RasterHeight(width)))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.config.Background), image.Point{}, draw.Src)

	r.renderCells(img, p, r.bounds(p))

	if r.config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator()
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}
	return img, nil
}

func (r *Renderer) bounds(p *Payload) Bounds {
	if r.config.BoundsMode == BoundsPercentile {
		return PercentileBounds(p, r.config.LowPercentile, r.config.HighPercentile)
	}
	return p.Bounds()
}

func (r *Renderer) renderCells(img *image.RGBA, p *Payload, bounds Bounds) {
	bins, frames := p.FreqBins(), p.TimeFrames()
	size := img.Bounds().Size()

	cellW := float64(size.X) / float64(frames)
	cellH := float64(size.Y) / float64(bins)
	w := int(math.Ceil(cellW))
	h := int(math.Ceil(cellH))

	for t := 0; t < frames; t++ {
		x := int(math.Floor(float64(t) * cellW))
		for f := 0; f < bins; f++ {
			y := int(math.Floor(float64(bins-1-f) * cellH))
			cell := image.Rect(x, y, x+w, y+h).Intersect(img.Rect)
			c := r.colorMap.Color(bounds.Normalize(p.Data[f][t]))
			fillRect(img, cell, c)
		}
	}
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
