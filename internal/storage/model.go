package storage

import (
	"errors"
	"time"
)

// ErrNoData indicates that no payload exists for the given result.
var ErrNoData = errors.New("no data available")

// Record describes a stored payload without its data.
type Record struct {
	ResultID   string
	FreqBins   int
	TimeFrames int
	Size       int64 // Encoded data size in bytes
	CreatedAt  time.Time
}

// ListOption configures Records.
type ListOption func(*listOptions)

type listOptions struct {
	limit int
}

// WithLimit caps the number of records returned. Non-positive values mean no limit.
func WithLimit(n int) ListOption {
	return func(o *listOptions) {
		o.limit = n
	}
}
