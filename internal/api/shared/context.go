package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
)

// ContextKey is the type of request context keys set by this package.
type ContextKey string

// TraceIDKey is the key for the trace ID in the request context.
const TraceIDKey ContextKey = "traceID"

// SetTraceID adds a trace ID to the context and to the context's logger.
// An incoming ID (for example chi's request ID) is reused when present.
func SetTraceID(ctx context.Context, incoming string) context.Context {
	traceID := incoming
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	return logger.WithRequestID(ctx, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
