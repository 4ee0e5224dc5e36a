// Package tenant provides the multi-tenant data model for Vyahan Core.
//
// Two tenant kinds exist: Organization (a logistics company, addressed by
// a unique subdomain) and Branch (an office owned by exactly one
// organization; a branch cannot outlive its organization). Both carry a
// slug as their stable external identifier and an argon2id password hash
// as their credential.
//
// The package also owns per-request tenant resolution: a request's tenant
// context is either derived from the host subdomain (branch always nil)
// or from a validated token (branch set iff the token is branch-kind).
// The context is an explicit immutable value threaded through
// context.Context, never ambient mutable state.
package tenant
