package auth

import "context"

type ctxKey string

const callerKey ctxKey = "caller_id"

// WithCaller returns a context carrying the caller identity. The HTTP
// middleware populates it from the X-Caller-Id header; tests and the Kafka
// listener set it directly.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller returns the caller identity, or "" when none was supplied.
func GetCaller(ctx context.Context) string {
	if val, ok := ctx.Value(callerKey).(string); ok {
		return val
	}
	return ""
}
