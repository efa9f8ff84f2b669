// Package dto carries the request/response shapes of the REST surface.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/oshiworks/streamvault/internal/models"
)

// SubmitRequest is the download submission body: either a single request
// object or an array of them. The shape is resolved once, here at the
// boundary, so orchestration code only ever sees a slice.
type SubmitRequest struct {
	// Batch records which of the two wire shapes arrived, deciding the
	// response shape.
	Batch bool
	Items []models.JobRequest
}

// ErrEmptyBody reports a submission without a JSON body.
var ErrEmptyBody = errors.New("no JSON body provided")

// UnmarshalJSON accepts `{...}` or `[{...}, ...]`.
func (r *SubmitRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmptyBody
	}
	if trimmed[0] == '[' {
		r.Batch = true
		return json.Unmarshal(trimmed, &r.Items)
	}
	var single models.JobRequest
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	r.Batch = false
	r.Items = []models.JobRequest{single}
	return nil
}

// SubmitResult is one item of a batch response. Exactly one of the job
// fields and Error is populated.
type SubmitResult struct {
	JobID   string `json:"jobId,omitempty"`
	VideoID string `json:"videoId,omitempty"`
	Title   string `json:"title,omitempty"`
	State   string `json:"state,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSubmitResult maps an orchestrator outcome onto the wire shape.
func NewSubmitResult(req models.JobRequest, job *models.Job, err error) SubmitResult {
	if err != nil {
		return SubmitResult{VideoID: req.VideoID, Error: err.Error()}
	}
	return SubmitResult{
		JobID:   job.ID,
		VideoID: job.VideoID,
		Title:   job.Title,
		State:   job.State.String(),
	}
}
