package source

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

const payloadJSON = `{"data":[[0,1],[2,3]],"shape":[2,2],"min":0,"max":3}`

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestHTTPClientSpectrogramData(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(payloadJSON))
	}))

	p, err := c.SpectrogramData(context.Background(), LocalResult("abc 1"))
	require.NoError(t, err)

	assert.Equal(t, "/spectrogram_data/abc%201", gotPath)
	assert.Equal(t, [2]int{2, 2}, p.Shape)
	assert.Equal(t, 3.0, p.Data[1][1])
}

func TestHTTPClientSpectrogramDataUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantCause  error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"Spectrogram data not found"}`, http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data":`))
			},
		},
		{
			name: "shape mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data":[[1]],"shape":[3,3],"min":0,"max":1}`))
			},
			wantCause: spectrogram.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.SpectrogramData(context.Background(), LocalResult("abc"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataUnavailable)

			var dataErr *DataUnavailableError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, "abc", dataErr.ResultID)
			assert.Equal(t, tt.wantStatus, dataErr.StatusCode)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
		})
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewHTTPClient(srv.URL, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.SpectrogramData(context.Background(), LocalResult("abc"))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestHTTPClientCanceled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payloadJSON))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SpectrogramData(ctx, LocalResult("abc"))
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClientSpectrogramImage(t *testing.T) {
	body := pngBytes(t)
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))

	img, err := c.SpectrogramImage(context.Background(), LocalResult("abc"))
	require.NoError(t, err)
	assert.Equal(t, "/spectrogram/abc", gotPath)
	assert.Equal(t, image.Pt(4, 2), img.Bounds().Size())

	_, err = c.SpectrogramImage(context.Background(), ResultDescriptor{ID: "abc"})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestHTTPClientRejectsOversizedImage(t *testing.T) {
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name      string
		maxPixels int64
		wantErr   bool
	}{
		{name: "over the cap", maxPixels: 4, wantErr: true},
		{name: "at the cap", maxPixels: 8},
		{name: "no cap", maxPixels: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHTTPClient(srv.URL, WithHTTPClient(srv.Client()), WithMaxImagePixels(tt.maxPixels))
			require.NoError(t, err)

			img, err := c.SpectrogramImage(context.Background(), LocalResult("abc"))
			if tt.wantErr {
				assert.Nil(t, img)
				assert.ErrorIs(t, err, ErrDataUnavailable)
				assert.ErrorIs(t, err, spectrogram.ErrRasterTooLarge)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, image.Pt(4, 2), img.Bounds().Size())
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestHTTPClientTimeoutKeepsCustomClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payloadJSON))
	}))
	t.Cleanup(srv.Close)

	var trips int
	custom := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		trips++
		return srv.Client().Transport.RoundTrip(r)
	})}

	c, err := NewHTTPClient(srv.URL, WithHTTPClient(custom), WithTimeout(5*time.Second))
	require.NoError(t, err)

	_, err = c.SpectrogramData(context.Background(), LocalResult("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, trips, "requests go through the custom transport")
	assert.Equal(t, 5*time.Second, c.client.Timeout)
	assert.Zero(t, custom.Timeout, "the caller's client is not mutated")
}

func TestHTTPClientDirectURLs(t *testing.T) {
	body := pngBytes(t)
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(body)
	}))

	d, err := Resolve(JobStatus{
		Status:         StatusComplete,
		VideoURL:       "/outputs/clip.mp4",
		SpectrogramURL: "/outputs/clip_spec.png",
	})
	require.NoError(t, err)

	_, err = c.SpectrogramImage(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "/outputs/clip_spec.png", gotPath)

	_, err = c.SpectrogramData(context.Background(), d)
	assert.ErrorIs(t, err, ErrDataUnavailable, "descriptor without id has no data endpoint")
}

func TestNewHTTPClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com")
	assert.Error(t, err)

	_, err = NewHTTPClient("://")
	assert.Error(t, err)
}

func TestIsJSONContentType(t *testing.T) {
	assert.True(t, isJSONContentType("application/json"))
	assert.True(t, isJSONContentType("application/json; charset=utf-8"))
	assert.True(t, isJSONContentType("application/problem+json"))
	assert.False(t, isJSONContentType("text/html"))
	assert.False(t, isJSONContentType(""))
}
