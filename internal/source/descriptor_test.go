package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		status  JobStatus
		want    ResultDescriptor
		wantErr error
	}{
		{
			name:   "output id",
			status: JobStatus{Status: StatusComplete, OutputID: "out-1", SpectrogramFilename: "out-1.png", Message: "done"},
			want: ResultDescriptor{
				ID:                 "out-1",
				VideoURL:           "/video/out-1",
				DownloadURL:        "/download/out-1",
				SpectrogramURL:     "/spectrogram/out-1",
				SpectrogramDataURL: "/spectrogram_data/out-1",
				Message:            "done",
			},
		},
		{
			name:   "job id fallback",
			status: JobStatus{Status: StatusComplete, JobID: "job-7"},
			want:   LocalResult("job-7"),
		},
		{
			name: "direct urls",
			status: JobStatus{
				Status:         StatusComplete,
				JobID:          "job-7",
				VideoURL:       "https://cdn.example.com/v.mp4",
				SpectrogramURL: "https://cdn.example.com/s.png",
			},
			want: ResultDescriptor{
				ID:                 "job-7",
				VideoURL:           "https://cdn.example.com/v.mp4",
				DownloadURL:        "https://cdn.example.com/v.mp4",
				SpectrogramURL:     "https://cdn.example.com/s.png",
				SpectrogramDataURL: "/spectrogram_data/job-7",
			},
		},
		{
			name:   "direct video without spectrogram url",
			status: JobStatus{Status: StatusComplete, OutputID: "o", VideoURL: "/v.mp4"},
			want: ResultDescriptor{
				ID:                 "o",
				VideoURL:           "/v.mp4",
				DownloadURL:        "/v.mp4",
				SpectrogramURL:     "/spectrogram/o",
				SpectrogramDataURL: "/spectrogram_data/o",
			},
		},
		{
			name:    "still processing",
			status:  JobStatus{Status: "processing", JobID: "job-7"},
			wantErr: ErrResultNotReady,
		},
		{
			name:    "no identifier",
			status:  JobStatus{Status: StatusComplete},
			wantErr: ErrInvalidResultID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestResultDescriptorValidate(t *testing.T) {
	assert.ErrorIs(t, ResultDescriptor{}.Validate(), ErrInvalidResultID)
	assert.ErrorIs(t, ResultDescriptor{ID: "  "}.Validate(), ErrInvalidResultID)
	assert.NoError(t, ResultDescriptor{SpectrogramURL: "/s.png"}.Validate())
	assert.Equal(t, "", ResultDescriptor{SpectrogramURL: "/s.png"}.CacheKey())
	assert.Equal(t, "abc", LocalResult("abc").CacheKey())
}
