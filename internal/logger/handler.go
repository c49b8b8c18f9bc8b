// Package logger decorates slog handlers with request-scoped context.
package logger

import (
	"context"
	"log/slog"

	"paperscout/internal/middleware"
)

// ContextHandler copies the correlation id from the request context onto
// every record so log lines from one request can be grouped.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}
