package source

import (
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable = errors.New("spectrogram data unavailable")
	ErrInvalidResultID = errors.New("invalid result id")
	ErrResultNotReady  = errors.New("result not ready")
)

// DataUnavailableError describes why an artifact could not be fetched.
type DataUnavailableError struct {
	ResultID   string
	URL        string
	StatusCode int // Zero when no response was received
	Err        error
}

func (e *DataUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s for result %q: status %d: %v", e.URL, e.ResultID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s for result %q: %v", e.URL, e.ResultID, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes every DataUnavailableError match ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
