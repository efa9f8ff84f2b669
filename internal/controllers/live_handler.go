package controllers

import (
	"errors"
	"time"

	"github.com/oshiworks/streamvault/internal/controllers/dto"
	"github.com/oshiworks/streamvault/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// LiveHandler exposes the live monitor.
type LiveHandler struct {
	*BaseHandler
	live *services.LiveService
}

// NewLiveHandler constructs the handler.
func NewLiveHandler(base *BaseHandler, live *services.LiveService) *LiveHandler {
	return &LiveHandler{BaseHandler: base, live: live}
}

// Register mounts the routes.
func (h *LiveHandler) Register(r *khttp.Router) {
	r.GET("/check-live", h.CheckLive)
}

// CheckLive reports the channel's live status. A pure inquiry: the dedupe
// store is never touched here.
func (h *LiveHandler) CheckLive(ctx khttp.Context) error {
	handle := ctx.Query().Get("channel")
	if handle == "" {
		return toTransportError(&services.ValidationError{Field: "channel", Msg: "parameter is required"})
	}

	tctx, cancel := h.WithTimeout(ctx, KindQuery)
	defer cancel()

	status, err := h.live.CheckLive(tctx, handle)
	if err != nil {
		var xe *services.ExtractError
		if errors.As(err, &xe) && xe.Reason == "members_only_no_access" {
			// Inaccessible is an answer, not a fault.
			return ctx.Result(200, dto.LiveStatusResponse{
				Error:     xe.Reason,
				CheckedAt: time.Now().UTC(),
			})
		}
		return toTransportError(err)
	}

	return ctx.Result(200, dto.LiveStatusResponse{
		IsLive:    status.IsLive,
		Stream:    status.Stream,
		CheckedAt: status.CheckedAt,
	})
}
