package controllers

import (
	"github.com/oshiworks/streamvault/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ChannelHandler exposes the channel metadata cache.
type ChannelHandler struct {
	*BaseHandler
	channels *services.ChannelService
}

// NewChannelHandler constructs the handler.
func NewChannelHandler(base *BaseHandler, channels *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{BaseHandler: base, channels: channels}
}

// Register mounts the routes.
func (h *ChannelHandler) Register(r *khttp.Router) {
	r.GET("/channel-info", h.ChannelInfo)
}

// ChannelInfo resolves a handle through the cache, refreshing synchronously
// on miss or staleness.
func (h *ChannelHandler) ChannelInfo(ctx khttp.Context) error {
	handle := ctx.Query().Get("channel")
	if handle == "" {
		return toTransportError(&services.ValidationError{Field: "channel", Msg: "parameter is required"})
	}

	tctx, cancel := h.WithTimeout(ctx, KindQuery)
	defer cancel()

	entry, err := h.channels.Resolve(tctx, handle)
	if err != nil {
		return toTransportError(err)
	}
	return ctx.Result(200, entry)
}
