package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

// Store persists spectrogram payloads keyed by result identifier. It backs
// both the client-side cache and the HTTP provider.
type Store interface {
	// SavePayload stores p under resultID, replacing any previous payload.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - resultID: Identifier of the processing result the payload belongs to
	//   - p: Validated payload
	//
	// Returns:
	//   - error: If the payload is invalid, storage fails or context is cancelled
	SavePayload(ctx context.Context, resultID string, p *spectrogram.Payload) error

	// Payload returns the payload stored under resultID, or ErrNoData.
	Payload(ctx context.Context, resultID string) (*spectrogram.Payload, error)

	// DeletePayload removes the payload stored under resultID, or returns ErrNoData.
	DeletePayload(ctx context.Context, resultID string) error

	// Records lists stored payloads, newest first.
	Records(ctx context.Context, opts ...ListOption) ([]Record, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
