package source

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	StatusComplete = "complete"

	videoPath           = "/video/"
	downloadPath        = "/download/"
	spectrogramPath     = "/spectrogram/"
	spectrogramDataPath = "/spectrogram_data/"
)

// JobStatus is the completion message of a processing job. Older servers
// reference artifacts by output_id, newer ones by direct URLs.
type JobStatus struct {
	Status              string `json:"status"`
	JobID               string `json:"job_id,omitempty"`
	OutputID            string `json:"output_id,omitempty"`
	SpectrogramFilename string `json:"spectrogram_filename,omitempty"`
	VideoURL            string `json:"video_url,omitempty"`
	SpectrogramURL      string `json:"spectrogram_url,omitempty"`
	Message             string `json:"message,omitempty"`
}

// ResultDescriptor locates the artifacts of one processed result. URLs are
// either absolute or relative to the data source base URL.
type ResultDescriptor struct {
	ID                 string
	VideoURL           string
	DownloadURL        string
	SpectrogramURL     string
	SpectrogramDataURL string
	Message            string
}

// LocalResult describes a result served under the conventional local paths.
func LocalResult(id string) ResultDescriptor {
	escaped := url.PathEscape(id)
	return ResultDescriptor{
		ID:                 id,
		VideoURL:           videoPath + escaped,
		DownloadURL:        downloadPath + escaped,
		SpectrogramURL:     spectrogramPath + escaped,
		SpectrogramDataURL: spectrogramDataPath + escaped,
	}
}

// Resolve turns a completion message into a descriptor. Direct URLs win
// over paths derived from the identifier.
func Resolve(status JobStatus) (ResultDescriptor, error) {
	if status.Status != StatusComplete {
		return ResultDescriptor{}, fmt.Errorf("%w: status %q", ErrResultNotReady, status.Status)
	}

	id := status.OutputID
	if id == "" {
		id = status.JobID
	}

	if status.VideoURL != "" {
		d := ResultDescriptor{
			ID:             id,
			VideoURL:       status.VideoURL,
			DownloadURL:    status.VideoURL,
			SpectrogramURL: status.SpectrogramURL,
			Message:        status.Message,
		}
		if id != "" {
			d.SpectrogramDataURL = spectrogramDataPath + url.PathEscape(id)
			if d.SpectrogramURL == "" {
				d.SpectrogramURL = spectrogramPath + url.PathEscape(id)
			}
		}
		return d, nil
	}

	if id == "" {
		return ResultDescriptor{}, fmt.Errorf("%w: no output or job id", ErrInvalidResultID)
	}

	d := LocalResult(id)
	d.Message = status.Message
	return d, nil
}

// Validate reports whether the descriptor can be loaded.
func (d ResultDescriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" && d.SpectrogramDataURL == "" && d.SpectrogramURL == "" {
		return ErrInvalidResultID
	}
	return nil
}

// CacheKey identifies the descriptor's payload in a cache; empty when the
// descriptor has no stable identifier.
func (d ResultDescriptor) CacheKey() string {
	return d.ID
}
