package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// PhaseKey is the context key for the lifecycle phase being run.
	PhaseKey contextKey = "phase"

	// SnippetKey is the context key for the snippet being handled.
	SnippetKey contextKey = "snippet"
)

// SnippetRef is the snippet identity carried in a context.
type SnippetRef struct {
	ID    int64
	Table string
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithPhase adds the lifecycle phase name to the context.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, PhaseKey, phase)
}

// GetPhase retrieves the lifecycle phase from the context.
func GetPhase(ctx context.Context) string {
	if phase, ok := ctx.Value(PhaseKey).(string); ok {
		return phase
	}
	return ""
}

// WithSnippet adds a snippet identity to the context.
func WithSnippet(ctx context.Context, id int64, table string) context.Context {
	return context.WithValue(ctx, SnippetKey, SnippetRef{ID: id, Table: table})
}

// GetSnippet retrieves the snippet identity from the context.
func GetSnippet(ctx context.Context) (SnippetRef, bool) {
	ref, ok := ctx.Value(SnippetKey).(SnippetRef)
	return ref, ok
}

// extractContextFields extracts all known log fields from the context as
// alternating key/value pairs.
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if phase := GetPhase(ctx); phase != "" {
		fields = append(fields, "phase", phase)
	}
	if ref, ok := GetSnippet(ctx); ok {
		fields = append(fields, "snippet_id", ref.ID, "snippet_table", ref.Table)
	}

	return fields
}

// FromContext returns logger enriched with the fields found in ctx.
// A nil logger means slog.Default().
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
