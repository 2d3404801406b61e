package spectrogram

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	dpi      = 72.0
	fontSize = 12.0

	FrequencyLabel = "Frequency (bins)"
	TimeLabel      = "Time (frames)"

	frequencyLabelX = 10
	frequencyLabelY = 20
	timeLabelX      = 15
)

var labelColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb3}

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(gomono.TTF)
})

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
}

func newAnnotator() (*annotator, error) {
	parsedFont, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.NewUniform(labelColor))

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA) error {
	if err := a.drawFrequencyLabel(img); err != nil {
		return fmt.Errorf("drawing frequency label: %w", err)
	}
	if err := a.drawTimeLabel(img); err != nil {
		return fmt.Errorf("drawing time label: %w", err)
	}
	return nil
}

func (a *annotator) drawFrequencyLabel(img *image.RGBA) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	_, err := a.context.DrawString(FrequencyLabel, freetype.Pt(frequencyLabelX, frequencyLabelY))
	return err
}

// drawTimeLabel renders the label horizontally into a scratch image, then
// rotates it a quarter turn counter-clockwise so it reads bottom to top with
// its baseline at timeLabelX, starting at the vertical centre.
func (a *annotator) drawTimeLabel(img *image.RGBA) error {
	metrics := a.fontFace.Metrics()
	ascent := metrics.Ascent.Ceil()
	textW := font.MeasureString(a.fontFace, TimeLabel).Ceil()
	textH := ascent + metrics.Descent.Ceil()
	if textW <= 0 || textH <= 0 {
		return nil
	}

	scratch := image.NewRGBA(image.Rect(0, 0, textW, textH))
	a.context.SetClip(scratch.Bounds())
	a.context.SetDst(scratch)
	if _, err := a.context.DrawString(TimeLabel, freetype.Pt(0, ascent)); err != nil {
		return err
	}

	rotated := rotateCounterClockwise(scratch)
	origin := image.Pt(timeLabelX-ascent, img.Bounds().Dy()/2-(textW-1))
	dst := rotated.Bounds().Add(origin).Add(img.Bounds().Min)
	draw.Draw(img, dst, rotated, image.Point{}, draw.Over)
	return nil
}

func rotateCounterClockwise(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetRGBA(y, b.Dx()-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
