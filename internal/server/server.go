// Package server exposes stored spectrogram payloads over HTTP, serving the
// endpoints the view consumes.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
	"github.com/roman-kulish/spectroscrub/internal/storage"
)

const (
	DefaultAddr       = ":8080"
	DefaultImageWidth = 1024
	DefaultRateLimit  = 20
	DefaultBurst      = 40
)

// PayloadStore is the part of storage.Store the server reads from.
type PayloadStore interface {
	Payload(ctx context.Context, resultID string) (*spectrogram.Payload, error)
	Records(ctx context.Context, opts ...storage.ListOption) ([]storage.Record, error)
}

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	ImageWidth     int     // Width of rendered /spectrogram images
	MaxImageWidth  int     // Upper bound for the width query parameter
	RateLimit      float64 // Requests per second per client, 0 disables limiting
	Burst          int
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ImageWidth <= 0 {
		c.ImageWidth = DefaultImageWidth
	}
	if c.MaxImageWidth < c.ImageWidth {
		c.MaxImageWidth = 4 * c.ImageWidth
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	return c
}

// Server is the HTTP provider of spectrogram data and images.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	store      PayloadStore
	renderer   *spectrogram.Renderer
	limiter    *clientLimiters
	config     Config
	logger     *slog.Logger
}

// NewServer creates a server over store. A nil renderer uses the defaults and
// a nil logger discards output.
func NewServer(config Config, store PayloadStore, renderer *spectrogram.Renderer, logger *slog.Logger) *Server {
	config = config.withDefaults()
	if renderer == nil {
		renderer = spectrogram.NewRenderer(spectrogram.RenderConfig{})
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		store:    store,
		renderer: renderer,
		config:   config,
		logger:   logger,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	if config.RateLimit > 0 {
		s.limiter = newClientLimiters(config.RateLimit, config.Burst)
	}
	return s
}

// Engine returns the gin engine, for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize installs middleware and routes. Call it once before Start.
func (s *Server) Initialize() {
	s.engine.Use(RequestLogger(s.logger))
	s.engine.Use(CORS())
	if s.limiter != nil {
		s.engine.Use(perClientRateLimit(s.limiter))
	}

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/spectrograms", s.listSpectrograms)
	s.engine.GET("/spectrogram_data/:id", s.getSpectrogramData)
	s.engine.GET("/spectrogram/:id", s.getSpectrogramImage)
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.config.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
