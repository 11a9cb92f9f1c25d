package logger

import "context"

type sessionIDKey struct{}

// WithSessionID attaches a session id to ctx. Loggers built by New add it
// as a masked session_id attribute to records logged with that context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the id set by WithSessionID, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
