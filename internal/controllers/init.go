package controllers

import (
	"github.com/oshiworks/streamvault/internal/infrastructure/config"

	"github.com/google/wire"
)

// ProviderSet wires the REST handlers.
var ProviderSet = wire.NewSet(
	NewHandlerTimeouts,
	NewBaseHandler,
	NewJobsHandler,
	NewLiveHandler,
	NewChannelHandler,
	NewHealthHandler,
)

// NewHandlerTimeouts derives per-kind budgets from the server config. The
// query budget matches the outer HTTP timeout so probe-backed reads do not
// get cut off below it.
func NewHandlerTimeouts(cfg config.Server) HandlerTimeouts {
	return HandlerTimeouts{Query: cfg.HTTPTimeout}
}
