package tenant

import "context"

// Context is the per-request tenant context: which organization (and
// optionally which branch) the request acts as. It is derived fresh on
// every request and never persisted.
//
// Exactly one of two population strategies applies per request:
// subdomain-derived (Branch always nil) or token-derived (Branch set
// iff the token subject is a branch).
type Context struct {
	Organization *Organization
	Branch       *Branch
}

// HasOrganization is the authorization gate: true iff the request
// carries a resolved organization, regardless of how it was resolved.
// Callers needing branch-level exclusivity check Branch explicitly.
func (c Context) HasOrganization() bool {
	return c.Organization != nil
}

// ctxKey is a private type for context keys to avoid collisions.
type ctxKey struct{}

// WithContext returns a context.Context carrying the tenant context.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext extracts the tenant context from a context.Context.
// Returns the zero (anonymous) value if none was set.
func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(ctxKey{}).(Context)
	return tc
}
