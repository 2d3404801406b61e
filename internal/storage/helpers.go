package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// payloadData is the row form of a payload.
type payloadData struct {
	FreqBins   int
	TimeFrames int
	Min        float64
	Max        float64
	Data       []byte
}

func toPayloadData(p *spectrogram.Payload) (*payloadData, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling data: %w", err)
	}

	return &payloadData{
		FreqBins:   p.FreqBins(),
		TimeFrames: p.TimeFrames(),
		Min:        p.Min,
		Max:        p.Max,
		Data:       data,
	}, nil
}

func (d *payloadData) toPayload() (*spectrogram.Payload, error) {
	p := &spectrogram.Payload{
		Shape: [2]int{d.FreqBins, d.TimeFrames},
		Min:   d.Min,
		Max:   d.Max,
	}
	if err := json.Unmarshal(d.Data, &p.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling data: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
