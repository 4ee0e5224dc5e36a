// Package api provides the HTTP REST API for Vyahan Core.
//
// It exposes tenant signup and login, token refresh and logout, branch
// administration, shipment booking and tracking. Tenant context is
// resolved per request from the host subdomain or from the bearer
// token; handlers never trust one request's context for the next.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
