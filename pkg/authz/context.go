package authz

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to prevent collisions.
type contextKey int

const requestIDKey contextKey = iota

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is stored.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the request ID attached.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// EnsureRequestID returns a context with a request ID, generating one if needed.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return ContextWithRequestID(ctx, id), id
}
