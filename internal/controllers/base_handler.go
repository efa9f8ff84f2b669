// Package controllers implements the REST handlers over the Kratos HTTP
// transport. Handlers stay thin: decode, delegate, encode.
package controllers

import (
	"context"
	"time"
)

// HandlerKind selects the per-request timeout budget.
type HandlerKind int

const (
	// KindQuery covers read paths, including ones that may hit the
	// extraction collaborator synchronously.
	KindQuery HandlerKind = iota
	// KindCommand covers submission paths, which return before any
	// pipeline work happens.
	KindCommand
)

// HandlerTimeouts configures the per-kind budgets.
type HandlerTimeouts struct {
	Query   time.Duration
	Command time.Duration
}

// BaseHandler carries behavior shared by all REST handlers.
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler applies defaults for unset budgets.
func NewBaseHandler(t HandlerTimeouts) *BaseHandler {
	if t.Query <= 0 {
		t.Query = 30 * time.Second
	}
	if t.Command <= 0 {
		t.Command = 5 * time.Second
	}
	return &BaseHandler{timeouts: t}
}

// WithTimeout bounds a request context by the handler kind's budget.
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerKind) (context.Context, context.CancelFunc) {
	d := h.timeouts.Query
	if kind == KindCommand {
		d = h.timeouts.Command
	}
	return context.WithTimeout(ctx, d)
}
