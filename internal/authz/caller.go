// Package authz resolves who is calling and what they may do: caller
// identity from signed tokens, and role permission grants.
package authz

import (
	"context"
	"slices"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID uint
	Roles  []string
}

// HasRole reports whether the caller holds any of roles.
func (c Caller) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
