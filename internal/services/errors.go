package services

import (
	"context"
	"errors"
	"fmt"
)

// FailureClass is the stable classification string attached to failed jobs.
type FailureClass string

const (
	// FailureTransient marks errors worth retrying: network faults,
	// timeouts, rate limits.
	FailureTransient FailureClass = "transient"

	// FailurePermanent marks errors retrying cannot fix: malformed URLs,
	// restricted or missing content, quota violations.
	FailurePermanent FailureClass = "permanent"
)

// Sentinel errors surfaced synchronously to callers.
var (
	// ErrJobNotFound reports a job id that was never issued.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull reports that the bounded submission queue is saturated.
	ErrQueueFull = errors.New("job queue is full")

	// ErrEmptySubmission reports a submission with no requests in it.
	ErrEmptySubmission = errors.New("empty submission")

	// ErrChannelNotCached reports a reverse lookup miss; the reverse index
	// never triggers a refresh.
	ErrChannelNotCached = errors.New("channel not cached")

	// ErrInvalidHandle reports a channel handle that failed sanitization.
	ErrInvalidHandle = errors.New("invalid channel handle")
)

// ValidationError reports a malformed job request. Batch submissions carry
// one per rejected item.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Msg)
}

// ExtractError is a classified failure from the extraction collaborator.
type ExtractError struct {
	// Reason is a stable machine-readable cause, e.g. "rate_limited",
	// "members_only_no_access", "auth_expired", "channel_not_found".
	Reason string
	Class  FailureClass
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s (%s): %v", e.Reason, e.Class, e.Err)
	}
	return fmt.Sprintf("extract: %s (%s)", e.Reason, e.Class)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError is a classified failure from scratch storage or the durable
// object store.
type StorageError struct {
	Class FailureClass
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage (%s): %v", e.Class, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ClassifyFailure maps a pipeline error onto the retry boundary. Unclassified
// errors default to transient so that unknown faults get the retry budget
// rather than failing jobs outright.
func ClassifyFailure(err error) FailureClass {
	var xe *ExtractError
	if errors.As(err, &xe) {
		return xe.Class
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}
	return FailureTransient
}
