package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 256 << 20
)

// HTTPClient fetches spectrogram artifacts from the processing server.
type HTTPClient struct {
	baseURL        *url.URL
	client         *http.Client
	logger         *slog.Logger
	maxBodyBytes   int64
	maxImagePixels int64
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithTimeout sets the request timeout. It applies to a copy of the current
// *http.Client, so it composes with WithHTTPClient in either order.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		client := *c.client
		client.Timeout = timeout
		c.client = &client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithMaxBodyBytes caps the size of a response body.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(c *HTTPClient) {
		c.maxBodyBytes = n
	}
}

// WithMaxImagePixels caps width*height of a fallback image. Larger images
// are rejected before their pixels are decoded.
func WithMaxImagePixels(n int64) HTTPOption {
	return func(c *HTTPClient) {
		c.maxImagePixels = n
	}
}

// NewHTTPClient creates a client resolving descriptor URLs against baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:        base,
		client:         &http.Client{Timeout: defaultTimeout},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBodyBytes:   defaultMaxBodyBytes,
		maxImagePixels: spectrogram.DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) SpectrogramData(ctx context.Context, d ResultDescriptor) (*spectrogram.Payload, error) {
	endpoint, err := c.resolve(d.SpectrogramDataURL)
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: d.SpectrogramDataURL, Err: err}
	}

	body, err := c.get(ctx, d.ID, endpoint, "application/json", isJSONContentType)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	p, err := spectrogram.DecodePayload(io.LimitReader(body, c.maxBodyBytes))
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: endpoint, Err: err}
	}

	c.logger.Debug("spectrogram data fetched",
		slog.String("result_id", d.ID),
		slog.Int("freq_bins", p.FreqBins()),
		slog.Int("time_frames", p.TimeFrames()),
		slog.String("cells", humanize.Comma(int64(p.FreqBins()*p.TimeFrames()))))

	return p, nil
}

func (c *HTTPClient) SpectrogramImage(ctx context.Context, d ResultDescriptor) (image.Image, error) {
	endpoint, err := c.resolve(d.SpectrogramURL)
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: d.SpectrogramURL, Err: err}
	}

	body, err := c.get(ctx, d.ID, endpoint, "image/png, image/jpeg", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.maxBodyBytes))
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: endpoint, Err: fmt.Errorf("reading image: %w", err)}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: endpoint, Err: fmt.Errorf("decoding image header: %w", err)}
	}
	if c.maxImagePixels > 0 && int64(cfg.Width)*int64(cfg.Height) > c.maxImagePixels {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: endpoint, Err: fmt.Errorf("%w: %dx%d image exceeds %d pixels",
			spectrogram.ErrRasterTooLarge, cfg.Width, cfg.Height, c.maxImagePixels)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DataUnavailableError{ResultID: d.ID, URL: endpoint, Err: fmt.Errorf("decoding image: %w", err)}
	}

	c.logger.Debug("spectrogram image fetched",
		slog.String("result_id", d.ID),
		slog.String("format", format),
		slog.String("size", img.Bounds().Size().String()))

	return img, nil
}

func (c *HTTPClient) resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("no endpoint for result")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// get issues the request and returns the body of a 2xx response whose
// content type passes accept.
func (c *HTTPClient) get(ctx context.Context, resultID, endpoint, acceptHeader string, accept func(string) bool) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &DataUnavailableError{ResultID: resultID, URL: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &DataUnavailableError{ResultID: resultID, URL: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &DataUnavailableError{
			ResultID:   resultID,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if contentType := resp.Header.Get("Content-Type"); accept != nil && !accept(contentType) {
		_ = resp.Body.Close()
		return nil, &DataUnavailableError{
			ResultID:   resultID,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected content type %q", contentType),
		}
	}

	if resp.ContentLength >= 0 {
		c.logger.Debug("response received",
			slog.String("url", endpoint),
			slog.String("length", humanize.Bytes(uint64(resp.ContentLength))))
	}

	return resp.Body, nil
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

var _ Source = (*HTTPClient)(nil)
