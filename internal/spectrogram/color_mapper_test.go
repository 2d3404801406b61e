package spectrogram

import (
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestColorMapperContinuity(t *testing.T) {
	cm := NewColorMapper(ViridisTheme)

	const maxStep = 3
	for i := 1; i < cm.Size(); i++ {
		prev := cm.Color(float64(i-1) / float64(cm.Size()-1))
		cur := cm.Color(float64(i) / float64(cm.Size()-1))
		for _, d := range []int{
			channelDiff(prev.R, cur.R),
			channelDiff(prev.G, cur.G),
			channelDiff(prev.B, cur.B),
		} {
			if d > maxStep {
				t.Fatalf("jump of %d between entries %d and %d: %v -> %v", d, i-1, i, prev, cur)
			}
		}
	}
}

func TestColorMapperAnchors(t *testing.T) {
	cm := NewColorMapper(ViridisTheme)

	tests := []struct {
		v    float64
		want color.RGBA
	}{
		{0, color.RGBA{R: 68, G: 1, B: 84, A: 255}},
		{1, color.RGBA{R: 253, G: 231, B: 37, A: 255}},
	}
	for _, tt := range tests {
		if got := cm.Color(tt.v); got != tt.want {
			t.Errorf("Color(%g) = %v, want %v", tt.v, got, tt.want)
		}
	}

	// clamped outside [0, 1]
	if got, want := cm.Color(-3), cm.Color(0); got != want {
		t.Errorf("Color(-3) = %v, want %v", got, want)
	}
	if got, want := cm.Color(42), cm.Color(1); got != want {
		t.Errorf("Color(42) = %v, want %v", got, want)
	}
}

func TestColorMapperLightnessIncreases(t *testing.T) {
	cm := NewColorMapper(ViridisTheme)

	lightness := func(v float64) float64 {
		c := cm.Color(v)
		l, _, _ := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Lab()
		return l
	}

	prev := lightness(0)
	for i := 1; i <= 20; i++ {
		v := float64(i) * 0.05
		l := lightness(v)
		if l <= prev {
			t.Fatalf("lightness not increasing at %.2f: %.4f <= %.4f", v, l, prev)
		}
		prev = l
	}
}

func TestColorMapperDegenerateBounds(t *testing.T) {
	cm := NewColorMapper(ViridisTheme)

	want := cm.Color(0)
	for _, v := range []float64{-5, 7, 7.5, 100} {
		if got := cm.ColorFor(v, 7, 7); got != want {
			t.Errorf("ColorFor(%g, 7, 7) = %v, want %v", v, got, want)
		}
	}
}

func TestColorMapperThemes(t *testing.T) {
	for theme := range validThemes {
		t.Run(string(theme), func(t *testing.T) {
			cm := NewColorMapperWithSize(theme, 64)
			if cm.Size() != 64 {
				t.Fatalf("Size() = %d, want 64", cm.Size())
			}
			if cm.ThemeName() != theme {
				t.Errorf("ThemeName() = %q, want %q", cm.ThemeName(), theme)
			}
			if cm.Color(0) == cm.Color(1) {
				t.Errorf("theme %q maps both ends to %v", theme, cm.Color(0))
			}
		})
	}

	if !IsValidTheme(MarineTheme) || IsValidTheme("sepia") {
		t.Error("IsValidTheme() disagrees with the theme table")
	}
	if got := NewColorMapperWithSize("", 1); got.Size() != DefaultColorMapSize || got.ThemeName() != ViridisTheme {
		t.Errorf("defaults = (%d, %q), want (%d, %q)", got.Size(), got.ThemeName(), DefaultColorMapSize, ViridisTheme)
	}
}
