package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnv-dev/vyahan-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
// Paths keep trailing slashes to stay compatible with existing clients.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.tenantMiddleware)

	r.Route("/api/organization", func(r chi.Router) {
		// Public endpoints
		r.Get("/health/", s.handleHealth)
		r.Post("/create/", s.handleCreateOrganization)
		r.Post("/login/", s.handleOrganizationLogin)
		r.Post("/branch/login/", s.handleBranchLogin)
		r.Post("/token/refresh/", s.handleTokenRefresh)
		r.Post("/logout/", s.handleLogout)

		// Public branch directory, gated on a resolved tenant.
		r.Group(func(r chi.Router) {
			r.Use(s.requireTenant)
			r.Get("/branches/", s.handlePublicBranches)
		})

		// Organization-token administration
		r.Route("/branches/admin", func(r chi.Router) {
			r.Use(s.requireToken(auth.SubjectOrganization))
			r.Get("/", s.handleAdminListBranches)
			r.Post("/create/", s.handleAdminCreateBranch)
			r.Delete("/{branch_slug}/delete/", s.handleAdminDeleteBranch)
		})

		// Branch-token endpoints
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken(auth.SubjectBranch))
			r.Get("/branch/branches/other/", s.handleSiblingBranches)
		})
	})

	r.Route("/api/shipment", func(r chi.Router) {
		// Public tracking
		r.Get("/track/{tracking_id}/", s.handleTrackShipment)

		// Branch-token operations
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken(auth.SubjectBranch))
			r.Post("/create/", s.handleCreateShipment)
			r.Patch("/{tracking_id}/update-status/", s.handleUpdateShipmentStatus)
		})

		// Either token kind
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken(""))
			r.Get("/list/", s.handleListShipments)
			r.Get("/{tracking_id}/", s.handleGetShipment)
		})
	})

	return r
}
