package core

import "context"

type contextKey string

const ctxKeyActor contextKey = "actor"

// ContextWithActor records the authenticated username for logging.
func ContextWithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, username)
}

// ActorFromContext returns the authenticated username, or "anonymous".
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}
