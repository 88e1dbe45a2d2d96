package web

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
)

type requestIDKey struct{}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID stored by RequestIDInjector, or the one
// chi's RequestID middleware generated when the injector did not run.
func GetRequestID(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id, true
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return id, true
	}
	return "", false
}
