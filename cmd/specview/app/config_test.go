package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "specview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfigIsValid(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, spectrogram.ViridisTheme, c.Render.ColorTheme)
	assert.Equal(t, ImagePNG, c.Render.Format)
	assert.Equal(t, defaultDBPath, c.Storage.DBPath)
}

func TestLoadConfigWithoutPath(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), c)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: DEBUG
  logFormat: json
source:
  baseURL: https://results.example.com
  timeout: 5s
  cache: true
view:
  width: 640
  resizeDebounce: 100ms
render:
  colorTheme: thermal
  boundsMode: percentile
  format: JPEG
server:
  addr: ":9090"
  shutdownTimeout: 2s
storage:
  dbPath: /tmp/results.sqlite
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Settings.LogLevel)
	assert.Equal(t, LogFormatJSON, c.Settings.LogFormat)
	assert.Equal(t, "https://results.example.com", c.Source.BaseURL)
	assert.Equal(t, 5*time.Second, c.Source.Timeout.Std())
	assert.True(t, c.Source.Cache)
	assert.Equal(t, 640, c.View.Width)
	assert.Equal(t, 100*time.Millisecond, c.View.ResizeDebounce.Std())
	assert.Equal(t, spectrogram.ThermalTheme, c.Render.ColorTheme)
	assert.Equal(t, spectrogram.BoundsPercentile, c.Render.BoundsMode)
	assert.Equal(t, ImageJPEG, c.Render.Format)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 2*time.Second, c.Server.ShutdownTimeout.Std())
	assert.Equal(t, "/tmp/results.sqlite", c.Storage.DBPath)

	// untouched sections keep their defaults
	assert.Equal(t, 40, c.Server.Burst)
	assert.Equal(t, spectrogram.DefaultColorMapSize, c.Render.ColorMapSize)
	assert.Equal(t, "#ff3b30", c.Render.IndicatorColor)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad duration",
			content: "source:\n  timeout: soon\n",
			wantErr: "failed to parse",
		},
		{
			name:    "unknown theme",
			content: "render:\n  colorTheme: rainbow\n",
			wantErr: "invalid color theme: rainbow",
		},
		{
			name:    "inverted percentiles",
			content: "render:\n  lowPercentile: 90\n  highPercentile: 10\n",
			wantErr: "invalid percentile range",
		},
		{
			name:    "unknown format",
			content: "render:\n  format: gif\n",
			wantErr: "invalid image format: gif",
		},
		{
			name:    "bad indicator color",
			content: "render:\n  indicatorColor: red\n",
			wantErr: "invalid indicator color",
		},
		{
			name:    "negative max pixels",
			content: "render:\n  maxPixels: -1\n",
			wantErr: "invalid max pixels: -1",
		},
		{
			name:    "unknown log level",
			content: "settings:\n  logLevel: loud\n",
			wantErr: "invalid log level: loud",
		},
		{
			name:    "not yaml",
			content: "render: [",
			wantErr: "parsing config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDurationMarshalYAML(t *testing.T) {
	v, err := Duration(1500 * time.Millisecond).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", v)
}

func TestNewLogger(t *testing.T) {
	_, lvl, err := NewLogger(os.Stderr, "warn", LogFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "WARN", lvl.Level().String())

	_, _, err = NewLogger(os.Stderr, "warn", "xml")
	assert.Error(t, err)

	_, _, err = NewLogger(os.Stderr, "verbose", LogFormatText)
	assert.Error(t, err)
}
