package types

import "context"

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores a request/trace identifier on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request/trace identifier from the context, or ""
// when none was set.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
