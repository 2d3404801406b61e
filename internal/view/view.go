// Package view implements the interactive spectrogram: it loads a result's
// payload, renders it to the container width, keeps a playback indicator in
// sync with a clock and turns pointer scrubbing into seeks.
package view

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/roman-kulish/spectroscrub/internal/playback"
	"github.com/roman-kulish/spectroscrub/internal/source"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

// DefaultResizeDebounce is the quiet period before a resize re-renders.
const DefaultResizeDebounce = 250 * time.Millisecond

// State is the lifecycle stage of a SpectrogramView.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

var errStaleLoad = errors.New("stale load")

// Option configures a SpectrogramView.
type Option func(*SpectrogramView)

// WithRenderer replaces the default renderer.
func WithRenderer(r *spectrogram.Renderer) Option {
	return func(v *SpectrogramView) {
		v.renderer = r
	}
}

// WithPresenter sets the display sink.
func WithPresenter(p Presenter) Option {
	return func(v *SpectrogramView) {
		v.presenter = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *SpectrogramView) {
		v.logger = logger
	}
}

// WithResizeDebounce sets the quiet period before a resize re-renders.
// Zero or negative values resize synchronously.
func WithResizeDebounce(d time.Duration) Option {
	return func(v *SpectrogramView) {
		v.debounce = d
	}
}

// SpectrogramView owns one displayed spectrogram. All methods are safe for
// concurrent use; the most recent Load wins.
type SpectrogramView struct {
	source    source.Source
	clock     playback.Clock
	layout    Layout
	renderer  *spectrogram.Renderer
	presenter Presenter
	logger    *slog.Logger
	debounce  time.Duration

	mu          sync.Mutex
	state       State
	token       uint64
	cancelLoad  context.CancelFunc
	descriptor  source.ResultDescriptor
	payload     *spectrogram.Payload
	raster      *image.RGBA
	fallback    image.Image
	indicator   spectrogram.Indicator
	dragging    bool
	subs        handles
	resizeTimer *time.Timer
	resizeGen   uint64
	resizeWidth int
}

// NewSpectrogramView creates an unloaded view. A nil clock disables the
// indicator and scrubbing.
func NewSpectrogramView(src source.Source, clock playback.Clock, layout Layout, opts ...Option) *SpectrogramView {
	v := &SpectrogramView{
		source:    src,
		clock:     clock,
		layout:    layout,
		presenter: nopPresenter{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce:  DefaultResizeDebounce,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.layout == nil {
		v.layout = NewContainer(0)
	}
	if v.renderer == nil {
		v.renderer = spectrogram.NewRenderer(spectrogram.RenderConfig{})
	}
	return v
}

// Load shows the result with the given identifier, served under the
// conventional local paths. See LoadResult.
func (v *SpectrogramView) Load(ctx context.Context, resultID string) State {
	if strings.TrimSpace(resultID) == "" {
		v.logger.Warn("ignoring load without result id")
		return v.State()
	}
	return v.LoadResult(ctx, source.LocalResult(resultID))
}

// LoadResult fetches the payload for d and renders it. When the payload is
// unavailable the static image is shown instead and scrubbing stays off.
// It returns the state the view is in afterwards; a load superseded by a
// newer one leaves the view untouched.
func (v *SpectrogramView) LoadResult(ctx context.Context, d source.ResultDescriptor) State {
	if err := d.Validate(); err != nil {
		v.logger.Warn("ignoring load", slog.Any("error", err))
		return v.State()
	}

	loadCtx, token := v.beginLoad(ctx, d)
	logger := v.logger.With(slog.String("result_id", d.ID), slog.Uint64("token", token))

	payload, err := v.source.SpectrogramData(loadCtx, d)
	if err == nil {
		var state State
		if state, err = v.applyPayload(token, payload); err == nil {
			logger.Debug("spectrogram loaded", slog.Int("freq_bins", payload.FreqBins()), slog.Int("time_frames", payload.TimeFrames()))
			return state
		}
	}
	if errors.Is(err, errStaleLoad) || v.isStale(token) {
		logger.Debug("discarding stale load")
		return v.State()
	}

	logger.Warn("spectrogram data unavailable, falling back to image", slog.Any("error", err))

	img, imgErr := v.source.SpectrogramImage(loadCtx, d)
	if imgErr != nil {
		logger.Error("fetching fallback image", slog.Any("error", imgErr))
	}
	return v.applyFallback(token, img, errors.Join(err, imgErr))
}

func (v *SpectrogramView) beginLoad(ctx context.Context, d source.ResultDescriptor) (context.Context, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resetLocked()
	v.token++

	loadCtx, cancel := context.WithCancel(ctx)
	v.cancelLoad = cancel
	v.descriptor = d
	v.state = StateLoading
	v.presenter.ShowLoading()

	return loadCtx, v.token
}

func (v *SpectrogramView) isStale(token uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return token != v.token
}

func (v *SpectrogramView) applyPayload(token uint64, p *spectrogram.Payload) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token {
		return v.state, errStaleLoad
	}
	if err := p.Validate(); err != nil {
		return v.state, err
	}

	v.payload = p
	if err := v.renderLocked(v.layout.Width()); err != nil {
		v.payload = nil
		return v.state, err
	}

	v.finishLoadLocked()
	v.state = StateLoaded
	v.subscribeLocked()
	v.updateIndicatorLocked()

	return v.state, nil
}

func (v *SpectrogramView) applyFallback(token uint64, img image.Image, err error) State {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token {
		return v.state
	}

	v.finishLoadLocked()
	v.fallback = img
	v.state = StateFallback
	v.presenter.ShowFallback(img, err)
	return v.state
}

// finishLoadLocked releases the context of the load that just completed.
func (v *SpectrogramView) finishLoadLocked() {
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
}

func (v *SpectrogramView) subscribeLocked() {
	if v.clock != nil {
		clock := v.clock
		id := clock.Subscribe(func(playback.Event) {
			v.OnPlaybackPositionChanged()
		})
		v.subs.add(func() { clock.Unsubscribe(id) })
	}
	if v.layout != nil {
		v.subs.add(v.layout.OnWidthChanged(v.Resize))
	}
}

// renderLocked rebuilds the raster at width. A non-positive width leaves the
// view loaded without a raster until the next resize. On error the previous
// raster is kept.
func (v *SpectrogramView) renderLocked(width int) error {
	if width <= 0 {
		v.raster = nil
		return nil
	}

	raster, err := v.renderer.Render(v.payload, width)
	if err != nil {
		return fmt.Errorf("rendering spectrogram at width %d: %w", width, err)
	}
	v.raster = raster
	v.presenter.ShowRaster(raster)
	return nil
}

func (v *SpectrogramView) updateIndicatorLocked() {
	if v.state != StateLoaded || v.clock == nil || v.raster == nil {
		return
	}

	size := v.raster.Bounds().Size()
	v.indicator = spectrogram.IndicatorAt(v.clock.CurrentTime(), v.clock.Duration(), size.X, size.Y)
	v.presenter.MoveIndicator(v.indicator)
}

// OnPlaybackPositionChanged moves the indicator to the clock position. Only
// the overlay is repainted.
func (v *SpectrogramView) OnPlaybackPositionChanged() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.updateIndicatorLocked()
}

// OnPointerInteraction seeks the clock to the fraction of rect under
// pointerX. It does nothing until the payload is loaded and the clock
// reports a positive duration.
func (v *SpectrogramView) OnPointerInteraction(pointerX float64, rect spectrogram.Rect) {
	v.mu.Lock()
	clock := v.clock
	loaded := v.state == StateLoaded
	v.mu.Unlock()

	if !loaded || clock == nil {
		return
	}

	duration := clock.Duration()
	if !(duration > 0) || math.IsInf(duration, 0) {
		return
	}

	// seek outside the lock, clocks may notify synchronously
	clock.Seek(spectrogram.ScrubProgress(pointerX, rect) * duration)
	v.OnPlaybackPositionChanged()
}

// Resize re-renders the raster at width once no further resize arrived for
// the debounce period.
func (v *SpectrogramView) Resize(width int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resizeWidth = width
	if v.debounce <= 0 {
		v.resizeLocked(width)
		return
	}

	v.resizeGen++
	gen := v.resizeGen
	if v.resizeTimer != nil {
		v.resizeTimer.Stop()
	}
	v.resizeTimer = time.AfterFunc(v.debounce, func() {
		v.fireResize(gen)
	})
}

func (v *SpectrogramView) fireResize(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.resizeGen {
		return
	}
	v.resizeTimer = nil
	v.resizeLocked(v.resizeWidth)
}

func (v *SpectrogramView) resizeLocked(width int) {
	if v.state != StateLoaded {
		return
	}
	if err := v.renderLocked(width); err != nil {
		v.logger.Error("resizing spectrogram", slog.Any("error", err))
		return
	}
	v.updateIndicatorLocked()
}

// Teardown cancels any in-flight load, releases every subscription and
// clears the display. It is safe to call at any time, more than once.
func (v *SpectrogramView) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.token++
	v.resetLocked()
	v.state = StateUnloaded
	v.presenter.Reset()
}

func (v *SpectrogramView) resetLocked() {
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	if v.resizeTimer != nil {
		v.resizeTimer.Stop()
		v.resizeTimer = nil
	}
	v.resizeGen++
	v.subs.release()

	v.descriptor = source.ResultDescriptor{}
	v.payload = nil
	v.raster = nil
	v.fallback = nil
	v.indicator = spectrogram.Indicator{}
	v.dragging = false
}

// State returns the current lifecycle stage.
func (v *SpectrogramView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Descriptor returns the result being shown.
func (v *SpectrogramView) Descriptor() source.ResultDescriptor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.descriptor
}

// Payload returns the loaded payload, nil unless loaded.
func (v *SpectrogramView) Payload() *spectrogram.Payload {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.payload
}

// Raster returns the current raster, nil unless loaded with a positive width.
func (v *SpectrogramView) Raster() *image.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.raster
}

// Fallback returns the static image shown in the fallback state.
func (v *SpectrogramView) Fallback() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fallback
}

// Indicator returns the current indicator position.
func (v *SpectrogramView) Indicator() spectrogram.Indicator {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.indicator
}
