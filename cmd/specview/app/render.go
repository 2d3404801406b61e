package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/spectroscrub/internal/playback"
	"github.com/roman-kulish/spectroscrub/internal/source"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
	"github.com/roman-kulish/spectroscrub/internal/view"
)

type renderOptions struct {
	resultID      string
	baseURL       string
	width         int
	duration      float64
	position      float64
	output        string
	format        string
	theme         string
	noAnnotations bool
	cache         bool
}

func newRenderCmd(rt *runtime) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a result's spectrogram with its playback indicator",
		Long: `Load a result through the spectrogram view and write a snapshot image.

The payload is fetched from the processing server. When it is unavailable the
server's static spectrogram image is written instead.

Example:
  specview render --result 42 -o spectrogram
  specview render --result 42 --width 800 --duration 30 --time 12.5 -o out.jpeg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, rt, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.resultID, "result", "r", "", "result identifier")
	f.StringVar(&opts.baseURL, "base-url", "", "processing server base URL, overrides config")
	f.IntVarP(&opts.width, "width", "w", 0, "container width in pixels, overrides config")
	f.Float64Var(&opts.duration, "duration", 0, "media duration in seconds, 0 when unknown")
	f.Float64VarP(&opts.position, "time", "t", 0, "playback position in seconds")
	f.StringVarP(&opts.output, "output", "o", "", "path to the output file")
	f.StringVarP(&opts.format, "format", "f", "", "output image format [png, jpeg], overrides config")
	f.StringVar(&opts.theme, "theme", "", "color theme, overrides config")
	f.BoolVar(&opts.noAnnotations, "no-annotations", false, "skip the axis labels")
	f.BoolVar(&opts.cache, "cache", false, "cache fetched payloads in the sqlite database")
	_ = cmd.MarkFlagRequired("result")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runRender(cmd *cobra.Command, rt *runtime, opts *renderOptions) error {
	config := rt.config
	logger := rt.logger

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		config.Source.BaseURL = opts.baseURL
	}
	if flags.Changed("width") {
		config.View.Width = opts.width
	}
	if flags.Changed("format") {
		config.Render.Format = ImageFormat(opts.format)
	}
	if flags.Changed("theme") {
		config.Render.ColorTheme = spectrogram.ColorTheme(opts.theme)
	}
	if flags.Changed("no-annotations") {
		config.Render.NoAnnotations = opts.noAnnotations
	}
	if flags.Changed("cache") {
		config.Source.Cache = opts.cache
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.View.Width <= 0 {
		return fmt.Errorf("%w: %d", spectrogram.ErrInvalidWidth, config.View.Width)
	}

	indicatorColor, err := colorful.Hex(config.Render.IndicatorColor)
	if err != nil {
		return fmt.Errorf("parsing indicator color: %w", err)
	}

	src, closeSource, err := rt.newSource()
	if err != nil {
		return err
	}
	defer closeSource()

	clock := playback.NewMediaClock(playback.WithLogger(logger), playback.WithDuration(opts.duration))
	defer clock.Close()
	clock.Seek(opts.position)

	presenter := &snapshotPresenter{indicatorColor: indicatorColor}
	v := view.NewSpectrogramView(src, clock, view.NewContainer(config.View.Width),
		view.WithRenderer(spectrogram.NewRenderer(config.renderConfig())),
		view.WithPresenter(presenter),
		view.WithLogger(logger),
		view.WithResizeDebounce(config.View.ResizeDebounce.Std()),
	)
	defer v.Teardown()

	state := v.Load(cmd.Context(), opts.resultID)
	logger.Info("spectrogram view ready", slog.String("result_id", opts.resultID), slog.String("state", state.String()))

	img, err := presenter.snapshot()
	if err != nil {
		return err
	}

	output := outputPath(opts.output, config.Render.Format)
	size, err := writeImage(output, img, config.Render.Format)
	if err != nil {
		return err
	}

	logger.Info("snapshot written",
		slog.String("path", output),
		slog.String("size", humanize.Bytes(uint64(size))),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()),
	)
	return nil
}

// newSource builds the HTTP data source, wrapped in the sqlite cache when
// caching is enabled.
func (rt *runtime) newSource() (source.Source, func(), error) {
	config, logger := rt.config, rt.logger

	opts := []source.HTTPOption{
		source.WithLogger(logger),
		source.WithTimeout(config.Source.Timeout.Std()),
		source.WithMaxImagePixels(int64(config.Render.MaxPixels)),
	}
	if config.Source.MaxBodyBytes > 0 {
		opts = append(opts, source.WithMaxBodyBytes(config.Source.MaxBodyBytes))
	}

	client, err := source.NewHTTPClient(config.Source.BaseURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating data source: %w", err)
	}
	if !config.Source.Cache {
		return client, func() {}, nil
	}

	store := rt.openStore()
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Error("closing storage", slog.Any("error", err))
		}
	}
	return source.NewCachedSource(client, store, logger), closeStore, nil
}

// snapshotPresenter keeps the last thing the view displayed so it can be
// written out as a single image.
type snapshotPresenter struct {
	indicatorColor color.Color

	mu          sync.Mutex
	raster      *image.RGBA
	indicator   spectrogram.Indicator
	fallback    image.Image
	fallbackErr error
	inFallback  bool
}

func (p *snapshotPresenter) ShowLoading() {}

func (p *snapshotPresenter) ShowRaster(raster *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raster = raster
	p.inFallback = false
}

func (p *snapshotPresenter) MoveIndicator(ind spectrogram.Indicator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indicator = ind
}

func (p *snapshotPresenter) ShowFallback(img image.Image, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raster = nil
	p.fallback = img
	p.fallbackErr = err
	p.inFallback = true
}

func (p *snapshotPresenter) Reset() {}

func (p *snapshotPresenter) snapshot() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.raster != nil:
		return spectrogram.Composite(p.raster, p.indicator, p.indicatorColor), nil
	case p.inFallback && p.fallback != nil:
		return p.fallback, nil
	case p.inFallback:
		return nil, fmt.Errorf("spectrogram unavailable: %w", p.fallbackErr)
	default:
		return nil, errors.New("nothing rendered")
	}
}

// outputPath appends the format extension unless the path already has one.
func outputPath(path string, format ImageFormat) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == string(format) || (format == ImageJPEG && ext == "jpg") {
		return path
	}
	return fmt.Sprintf("%s.%s", path, format)
}

func writeImage(path string, img image.Image, format ImageFormat) (n int64, err error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	cw := &countingWriter{w: file}
	if err = encodeImage(cw, img, format); err != nil {
		return 0, err
	}
	return cw.n, nil
}

func encodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
	case ImageJPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 90}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		return fmt.Errorf("invalid image format: %s", format)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
