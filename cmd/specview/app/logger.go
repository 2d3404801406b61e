package app

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger builds the process logger. The returned LevelVar lets callers
// raise or lower the level after construction.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, *slog.LevelVar, error) {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), lvl, nil
	case LogFormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), lvl, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format: %s", format)
	}
}
