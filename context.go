package custodian

import "context"

type contextKey int

const ctxKeyLabID contextKey = iota

// WithLab returns a context carrying the given lab ID.
// Use this for standalone mode (without Forge).
func WithLab(ctx context.Context, labID string) context.Context {
	return context.WithValue(ctx, ctxKeyLabID, labID)
}

func labIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyLabID).(string)
	if !ok {
		return ""
	}
	return v
}
