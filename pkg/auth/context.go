package auth

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const resolutionKey contextKey = iota

// FromContext returns the resolution stored by the middleware. A context
// without one resolves to StatusMissing.
func FromContext(ctx context.Context) Resolution {
	r, ok := LookupResolution(ctx)
	if !ok {
		return Resolution{Status: StatusMissing}
	}
	return r
}

// LookupResolution returns the resolution stored in ctx and whether one
// was stored at all.
func LookupResolution(ctx context.Context) (Resolution, bool) {
	r, ok := ctx.Value(resolutionKey).(Resolution)
	return r, ok
}

// ContextWithResolution returns a new context carrying r. Handlers under
// test use it to simulate an authenticated caller.
func ContextWithResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, r)
}
