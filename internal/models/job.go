package models

import "time"

// JobState tracks a backup job through its lifecycle.
type JobState string

const (
	// JobStateQueued means the job is waiting for a worker slot.
	JobStateQueued JobState = "queued"

	// JobStateDownloading means a worker is fetching the media.
	JobStateDownloading JobState = "downloading"

	// JobStateUploading means the artifact is being streamed to object storage.
	JobStateUploading JobState = "uploading"

	// JobStateCompleted means the backup is durably stored.
	JobStateCompleted JobState = "completed"

	// JobStateFailed means the job ended with an unrecoverable error.
	JobStateFailed JobState = "failed"
)

// String returns the string representation of the state.
func (s JobState) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Active reports whether a worker currently owns the job.
func (s JobState) Active() bool {
	return s == JobStateDownloading || s == JobStateUploading
}

// JobRequest is a caller-supplied backup request.
type JobRequest struct {
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
	Title    string `json:"title"`
}

// Job is one tracked download-then-upload task. Fields other than the
// caller-supplied triple are mutated only by the worker that owns the job.
type Job struct {
	ID       string `json:"jobId"`
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
	Title    string `json:"title"`

	State        JobState `json:"state"`
	Attempts     int      `json:"attempts"`
	LastError    string   `json:"lastError,omitempty"`
	FailureClass string   `json:"failureClass,omitempty"`
	StorageURI   string   `json:"storageUri,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	StartedAt time.Time `json:"startedAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy safe to hand outside the registry lock.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}
