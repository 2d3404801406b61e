package server

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
	"github.com/roman-kulish/spectroscrub/internal/storage"
)

const maxListLimit = 500

type recordResponse struct {
	ResultID   string    `json:"result_id"`
	FreqBins   int       `json:"freq_bins"`
	TimeFrames int       `json:"time_frames"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listSpectrograms(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxListLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	records, err := s.store.Records(ctx, storage.WithLimit(limit))
	if err != nil {
		s.logger.Error("listing spectrograms", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list spectrograms"})
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, recordResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"spectrograms": out})
}

func (s *Server) getSpectrogramData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	id := c.Param("id")
	p, err := s.store.Payload(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Spectrogram data not found"})
			return
		}
		s.logger.Error("reading spectrogram data", slog.String("result_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve spectrogram data"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (s *Server) getSpectrogramImage(c *gin.Context) {
	width := s.config.ImageWidth
	if v := c.Query("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > s.config.MaxImageWidth {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid width"})
			return
		}
		width = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	id := c.Param("id")
	p, err := s.store.Payload(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Spectrogram not found"})
			return
		}
		s.logger.Error("reading spectrogram data", slog.String("result_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve spectrogram"})
		return
	}

	raster, err := s.renderer.Render(p, width)
	if err != nil {
		if errors.Is(err, spectrogram.ErrRasterTooLarge) {
			s.logger.Warn("spectrogram too large", slog.String("result_id", id), slog.Int("width", width), slog.Any("error", err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Spectrogram too large to render at this width"})
			return
		}
		s.logger.Error("rendering spectrogram", slog.String("result_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render spectrogram"})
		return
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, raster); err != nil {
		s.logger.Error("encoding spectrogram", slog.String("result_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render spectrogram"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
