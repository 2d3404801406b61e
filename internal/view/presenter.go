package view

import (
	"image"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

// Presenter displays what the view produces. Its methods are called with the
// view lock held and must not call back into the view.
type Presenter interface {
	ShowLoading()
	// ShowRaster replaces the spectrogram raster. The indicator overlay is
	// kept separately and moved with MoveIndicator.
	ShowRaster(raster *image.RGBA)
	MoveIndicator(ind spectrogram.Indicator)
	// ShowFallback displays the static image; img is nil when it could not
	// be fetched either.
	ShowFallback(img image.Image, err error)
	Reset()
}

type nopPresenter struct{}

func (nopPresenter) ShowLoading() {}
func (nopPresenter) ShowRaster(*image.RGBA) {}
func (nopPresenter) MoveIndicator(spectrogram.Indicator) {}
func (nopPresenter) ShowFallback(image.Image, error) {}
func (nopPresenter) Reset() {}
