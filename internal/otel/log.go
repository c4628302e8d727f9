package otel

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// CorrelatedHandler adds trace_id and span_id to records logged with a
// context that carries a sampled or remote span, so a fetch log line can be
// found next to its trace.
type CorrelatedHandler struct {
	next slog.Handler
}

// NewCorrelatedHandler wraps next
func NewCorrelatedHandler(next slog.Handler) *CorrelatedHandler {
	return &CorrelatedHandler{next: next}
}

// Enabled implements slog.Handler
func (h *CorrelatedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *CorrelatedHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler
func (h *CorrelatedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewCorrelatedHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler
func (h *CorrelatedHandler) WithGroup(name string) slog.Handler {
	return NewCorrelatedHandler(h.next.WithGroup(name))
}
