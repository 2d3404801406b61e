package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/spectroscrub/internal/server"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	LogFormatText = "text"
	LogFormatJSON = "json"

	defaultDBPath = "spectrograms.sqlite"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var validLogFormats = map[string]struct{}{
	LogFormatText: {},
	LogFormatJSON: {},
}

var validBoundsModes = map[spectrogram.BoundsMode]struct{}{
	spectrogram.BoundsPayload:    {},
	spectrogram.BoundsPercentile: {},
}

// Config represents the application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Source   SourceConfig  `yaml:"source"`
	View     ViewConfig    `yaml:"view"`
	Render   RenderConfig  `yaml:"render"`
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// SourceConfig locates the processing server the view fetches from.
type SourceConfig struct {
	BaseURL      string   `yaml:"baseURL"`
	Timeout      Duration `yaml:"timeout"`
	MaxBodyBytes int64    `yaml:"maxBodyBytes"`
	Cache        bool     `yaml:"cache"` // Keep fetched payloads in the storage database
}

type ViewConfig struct {
	Width          int      `yaml:"width"`
	ResizeDebounce Duration `yaml:"resizeDebounce"`
}

type RenderConfig struct {
	ColorTheme     spectrogram.ColorTheme `yaml:"colorTheme"`
	ColorMapSize   int                    `yaml:"colorMapSize"`
	BoundsMode     spectrogram.BoundsMode `yaml:"boundsMode"`
	LowPercentile  float64                `yaml:"lowPercentile"`
	HighPercentile float64                `yaml:"highPercentile"`
	NoAnnotations  bool                   `yaml:"noAnnotations"`
	MaxPixels      int                    `yaml:"maxPixels"` // Largest raster or fallback image, width*height
	IndicatorColor string                 `yaml:"indicatorColor"` // Hex, e.g. #ff3b30
	Format         ImageFormat            `yaml:"format"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ImageWidth      int      `yaml:"imageWidth"`
	RateLimit       float64  `yaml:"rateLimit"`
	Burst           int      `yaml:"burst"`
	RequestTimeout  Duration `yaml:"requestTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:  "info",
			LogFormat: LogFormatText,
		},
		Source: SourceConfig{
			BaseURL: "http://localhost:8080",
			Timeout: Duration(30 * time.Second),
		},
		View: ViewConfig{
			Width:          1024,
			ResizeDebounce: 0,
		},
		Render: RenderConfig{
			ColorTheme:     spectrogram.ViridisTheme,
			ColorMapSize:   spectrogram.DefaultColorMapSize,
			BoundsMode:     spectrogram.BoundsPayload,
			LowPercentile:  spectrogram.DefaultLowPercentile,
			HighPercentile: spectrogram.DefaultHighPercentile,
			MaxPixels:      spectrogram.DefaultMaxPixels,
			IndicatorColor: "#ff3b30",
			Format:         ImagePNG,
		},
		Server: ServerConfig{
			Addr:            server.DefaultAddr,
			ImageWidth:      server.DefaultImageWidth,
			RateLimit:       server.DefaultRateLimit,
			Burst:           server.DefaultBurst,
			RequestTimeout:  Duration(10 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	c := NewConfig()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err = c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	c.Settings.LogLevel = strings.ToLower(c.Settings.LogLevel)
	c.Render.Format = ImageFormat(strings.ToLower(string(c.Render.Format)))

	var errs []error
	if _, ok := validLogLevels[c.Settings.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Settings.LogLevel))
	}
	if _, ok := validLogFormats[c.Settings.LogFormat]; !ok {
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Settings.LogFormat))
	}
	if c.Source.BaseURL == "" {
		errs = append(errs, errors.New("source base url is required"))
	}
	if c.View.Width < 0 {
		errs = append(errs, fmt.Errorf("invalid view width: %d", c.View.Width))
	}
	if !spectrogram.IsValidTheme(c.Render.ColorTheme) {
		errs = append(errs, fmt.Errorf("invalid color theme: %s", c.Render.ColorTheme))
	}
	if _, ok := validBoundsModes[c.Render.BoundsMode]; !ok {
		errs = append(errs, fmt.Errorf("invalid bounds mode: %s", c.Render.BoundsMode))
	}
	if c.Render.LowPercentile < 0 || c.Render.HighPercentile > 100 || c.Render.LowPercentile >= c.Render.HighPercentile {
		errs = append(errs, fmt.Errorf("invalid percentile range: %g-%g", c.Render.LowPercentile, c.Render.HighPercentile))
	}
	if c.Render.MaxPixels < 0 {
		errs = append(errs, fmt.Errorf("invalid max pixels: %d", c.Render.MaxPixels))
	}
	if _, err := colorful.Hex(c.Render.IndicatorColor); err != nil {
		errs = append(errs, fmt.Errorf("invalid indicator color: %s", c.Render.IndicatorColor))
	}
	if _, ok := validImageFormats[c.Render.Format]; !ok {
		errs = append(errs, fmt.Errorf("invalid image format: %s", c.Render.Format))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid rate limit: %g", c.Server.RateLimit))
	}
	return errors.Join(errs...)
}

func (c *Config) renderConfig() spectrogram.RenderConfig {
	return spectrogram.RenderConfig{
		ColorTheme:     c.Render.ColorTheme,
		ColorMapSize:   c.Render.ColorMapSize,
		BoundsMode:     c.Render.BoundsMode,
		LowPercentile:  c.Render.LowPercentile,
		HighPercentile: c.Render.HighPercentile,
		NoAnnotations:  c.Render.NoAnnotations,
		MaxPixels:      c.Render.MaxPixels,
	}
}
