// context.go carries run IDs and cxdb context IDs on a context.Context.

package ohcrash

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	contextIDKey
)

// WithRunID tags ctx with the ID of the current agent run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID of ctx. An empty ID counts as unset.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id, id != ""
}

// WithContextID links reports built from ctx to a cxdb context. Zero is a
// valid ID.
func WithContextID(ctx context.Context, contextID uint64) context.Context {
	return context.WithValue(ctx, contextIDKey, contextID)
}

// ContextIDFromContext returns the cxdb context ID of ctx, if any.
func ContextIDFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(contextIDKey).(uint64)
	return id, ok
}

// ContextIDProvider is implemented by sessions that know their cxdb context.
type ContextIDProvider interface {
	ContextID(ctx context.Context) (uint64, error)
}
