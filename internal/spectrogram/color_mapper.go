package spectrogram

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme represents a predefined color scheme for magnitude visualization.
// ViridisTheme is the default and the only one whose lightness is strictly
// increasing in the normalized value; the rest are kept for snapshots.
type ColorTheme string

const (
	ViridisTheme   ColorTheme = "viridis"   // Dark purple to blue to green to yellow
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validThemes = map[ColorTheme]struct{}{
	ViridisTheme:   {},
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

// IsValidTheme reports whether theme names a known color scheme.
func IsValidTheme(theme ColorTheme) bool {
	_, ok := validThemes[theme]
	return ok
}

// viridisStops are the anchors of the default map at 0, .25, .5, .75 and 1.
var viridisStops = [...]colorful.Color{
	rgb255(68, 1, 84),
	rgb255(59, 82, 139),
	rgb255(33, 145, 140),
	rgb255(94, 201, 98),
	rgb255(253, 231, 37),
}

// ColorMapper maps normalized magnitudes to colors through a pre-computed
// lookup table.
type ColorMapper struct {
	colorMap  []color.RGBA
	themeName ColorTheme
	size      int
}

// NewColorMapper creates a color mapper with the default table size.
func NewColorMapper(theme ColorTheme) *ColorMapper {
	return NewColorMapperWithSize(theme, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a color mapper with size pre-computed colors.
// Sizes below 2 fall back to the default.
func NewColorMapperWithSize(theme ColorTheme, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}
	if theme == "" {
		theme = ViridisTheme
	}

	fn := getColorTheme(theme)
	cm := &ColorMapper{
		colorMap:  make([]color.RGBA, size),
		themeName: theme,
		size:      size,
	}
	for i := 0; i < size; i++ {
		r, g, b := fn(float64(i) / float64(size-1)).Clamped().RGB255()
		cm.colorMap[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return cm
}

// Color returns the color for a normalized value. Out of range input is clamped.
func (cm *ColorMapper) Color(normalized float64) color.RGBA {
	index := int(math.Round(clamp01(normalized) * float64(cm.size-1)))
	return cm.colorMap[index]
}

// ColorFor normalizes value against [minValue, maxValue] and returns its color.
func (cm *ColorMapper) ColorFor(value, minValue, maxValue float64) color.RGBA {
	return cm.Color(Bounds{Min: minValue, Max: maxValue}.Normalize(value))
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return cm.size
}

func rgb255(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// viridis interpolates linearly between the anchor pair of the segment v falls in.
func viridis(v float64) colorful.Color {
	segments := float64(len(viridisStops) - 1)
	pos := clamp01(v) * segments
	i := int(pos)
	if i >= len(viridisStops)-1 {
		return viridisStops[len(viridisStops)-1]
	}
	return viridisStops[i].BlendRgb(viridisStops[i+1], pos-float64(i))
}

func getColorTheme(theme ColorTheme) func(float64) colorful.Color {
	switch theme {
	case ClassicTheme:
		return func(v float64) colorful.Color {
			return colorful.Hsv(240-(v*240), 0.9+(v*0.1), math.Pow(v, 0.7))
		}

	case GrayscaleTheme:
		return func(v float64) colorful.Color {
			g := math.Pow(v, 0.7)
			return colorful.Color{R: g, G: g, B: g}
		}

	case JungleTheme:
		return func(v float64) colorful.Color {
			return colorful.Hsv(120-(v*60), 1.0, 0.3+(math.Pow(v, 0.6)*0.7))
		}

	case ThermalTheme:
		return func(v float64) colorful.Color {
			switch {
			case v < 1.0/3:
				return colorful.Color{R: v * 3}
			case v < 2.0/3:
				return colorful.Color{R: 1, G: (v - 1.0/3) * 3}
			default:
				return colorful.Color{R: 1, G: 1, B: (v - 2.0/3) * 3}
			}
		}

	case MarineTheme:
		return func(v float64) colorful.Color {
			return colorful.Hsv(240-(v*60), 1.0-(v*0.8), 0.3+(math.Pow(v, 0.6)*0.7))
		}

	default:
		return viridis
	}
}
