package controllers

import (
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// NewHealthHandler constructs the handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Register mounts the routes.
func (h *HealthHandler) Register(r *khttp.Router) {
	r.GET("/health", h.Health)
}

// Health reports process liveness only. It does not touch collaborators.
func (h *HealthHandler) Health(ctx khttp.Context) error {
	return ctx.Result(200, map[string]string{"status": "ok"})
}
