package tenancy

import "context"

type contextKey string

// CallerKey is the context key under which the authenticated caller is
// stored by the auth middleware.
const CallerKey contextKey = "tenancyCaller"

// GetCaller retrieves the authenticated caller from context.
// Returns a zero Caller and false if not present.
func GetCaller(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller, ok
}

// SetCaller stores the authenticated caller in context.
func SetCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}
