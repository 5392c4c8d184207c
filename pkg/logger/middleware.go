package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// correlationIDKey marks the context storage slot for the correlation identifier.
type correlationIDKey struct{}

// CorrelationIDFromContext returns the correlation identifier stored in ctx, or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}

// WithCorrelationID stores a correlation identifier in ctx. Update processing
// uses this to stamp a fresh identifier onto each incoming Telegram update.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// NewCorrelationID returns a fresh correlation identifier.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Middleware injects a correlation identifier into the request context and
// echoes it back in the X-Correlation-ID response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := uuid.NewString()
		w.Header().Set("X-Correlation-ID", correlationID)

		ctxWithID := WithCorrelationID(r.Context(), correlationID)
		next.ServeHTTP(w, r.WithContext(ctxWithID))
	})
}
