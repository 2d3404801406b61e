package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	upsertPayloadSQL = `
INSERT INTO spectrograms (result_id,
                          freq_bins,
                          time_frames,
                          min_value,
                          max_value,
                          data,
                          created_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (result_id) DO UPDATE SET freq_bins   = excluded.freq_bins,
                                      time_frames = excluded.time_frames,
                                      min_value   = excluded.min_value,
                                      max_value   = excluded.max_value,
                                      data        = excluded.data,
                                      created_at  = excluded.created_at`

	selectPayloadSQL = `
SELECT
    freq_bins,
    time_frames,
    min_value,
    max_value,
    data
FROM spectrograms
WHERE
    result_id = ?`

	deletePayloadSQL = `
DELETE FROM spectrograms
WHERE
    result_id = ?`

	selectRecordsSQL = `
SELECT
    result_id,
    freq_bins,
    time_frames,
    length(data),
    created_at
FROM spectrograms
ORDER BY created_at DESC, result_id`
)
