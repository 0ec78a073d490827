package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a type for context keys
type contextKey string

// TraceIDContextKey is the key for storing trace ID in context
const TraceIDContextKey contextKey = "trace_id"

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// WithNewTraceID returns a context carrying a freshly generated trace ID.
func WithNewTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// GetTraceID extracts the trace ID from the context, or returns an empty
// string when none is set.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return v
	}
	return ""
}
