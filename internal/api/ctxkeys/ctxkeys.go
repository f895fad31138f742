// Package ctxkeys holds the shared context keys of the API layer. It is a
// leaf package so api and api/handlers can both import it without cycles.
package ctxkeys

import "context"

// Key is the named type for all API context keys. context.Value compares
// both type and value, so a named type cannot collide with plain strings
// from other packages.
type Key string

// Client is the context key for the authenticated client name, injected by
// the auth middleware from token claims.
const Client Key = "client"

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String retrieves a string value stored under key.
func String(ctx context.Context, key Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
