package controllers

import (
	"errors"

	"github.com/oshiworks/streamvault/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Stable error reasons exposed on the wire.
const (
	reasonValidation      = "VALIDATION_FAILED"
	reasonJobNotFound     = "JOB_NOT_FOUND"
	reasonQueueFull       = "QUEUE_SATURATED"
	reasonChannelNotFound = "CHANNEL_NOT_FOUND"
	reasonAuthExpired     = "AUTH_EXPIRED"
	reasonRateLimited     = "RATE_LIMITED"
	reasonExtraction      = "EXTRACTION_FAILED"
	reasonInternal        = "INTERNAL"
)

// toTransportError maps service-layer errors onto Kratos transport errors
// with stable reasons and status codes.
func toTransportError(err error) error {
	if err == nil {
		return nil
	}
	if ke := kerrors.FromError(err); ke != nil && ke.Code != 500 {
		return ke
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return kerrors.BadRequest(reasonValidation, ve.Error())
	}

	switch {
	case errors.Is(err, services.ErrJobNotFound):
		return kerrors.NotFound(reasonJobNotFound, "job not found")
	case errors.Is(err, services.ErrQueueFull):
		return kerrors.New(429, reasonQueueFull, "job queue is full")
	case errors.Is(err, services.ErrInvalidHandle):
		return kerrors.BadRequest(reasonValidation, "invalid channel format")
	case errors.Is(err, services.ErrChannelNotCached):
		return kerrors.NotFound(reasonChannelNotFound, "channel not cached")
	}

	var xe *services.ExtractError
	if errors.As(err, &xe) {
		switch xe.Reason {
		case "auth_expired":
			return kerrors.Unauthorized(reasonAuthExpired, "cookies need refresh")
		case "rate_limited":
			return kerrors.New(429, reasonRateLimited, "rate limited by upstream")
		case "channel_not_found":
			return kerrors.NotFound(reasonChannelNotFound, "channel not found")
		default:
			return kerrors.InternalServer(reasonExtraction, "failed to query extractor").WithCause(err)
		}
	}

	return kerrors.InternalServer(reasonInternal, "internal error").WithCause(err)
}
