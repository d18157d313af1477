package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextClientKey ctxKey = "clientID"

// ClientIDFromContext returns the id of the browser client that issued the request.
// Mounted screens and persisted client state are keyed by it.
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if clientID, ok := ctx.Value(ContextClientKey).(string); ok {
		return clientID
	}
	return ""
}

func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ContextClientKey, clientID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
