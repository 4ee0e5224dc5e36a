package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnv-dev/vyahan-core/internal/audit"
	"github.com/mnv-dev/vyahan-core/internal/auth"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// branchView is the public shape of a branch: no password hash, no
// internal metadata.
type branchView struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func toBranchViews(branches []tenant.Branch) []branchView {
	views := make([]branchView, len(branches))
	for i, b := range branches {
		views[i] = branchView{Slug: b.Slug, Title: b.Title}
	}
	return views
}

// handlePublicBranches lists the resolved tenant's branches for
// anonymous callers on the organization's subdomain.
func (s *Server) handlePublicBranches(w http.ResponseWriter, r *http.Request) {
	tc := tenant.FromContext(r.Context())

	branches, err := s.branches.ListByOrganization(r.Context(), tc.Organization.ID)
	if err != nil {
		s.logger.Error("listing branches", "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Branches fetched successfully", map[string]any{
		"branches": toBranchViews(branches),
		"count":    len(branches),
	})
}

// handleAdminListBranches lists the authenticated organization's
// branches with full detail.
func (s *Server) handleAdminListBranches(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	branches, err := s.branches.ListByOrganization(r.Context(), id.Organization.ID)
	if err != nil {
		s.logger.Error("listing branches", "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Branches fetched successfully", map[string]any{
		"branches": branches,
		"count":    len(branches),
	})
}

// handleAdminCreateBranch creates a branch under the authenticated
// organization. A missing slug is derived from the title; a taken slug
// is retried with a numeric suffix since slugs are globally unique.
func (s *Server) handleAdminCreateBranch(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Title    string         `json:"title"`
		Slug     string         `json:"slug"`
		Password string         `json:"password"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body")
		return
	}
	if req.Title == "" || req.Password == "" {
		writeBadRequest(w, "title and password are required")
		return
	}

	explicitSlug := req.Slug != ""
	if !explicitSlug {
		req.Slug = tenant.Slugify(req.Title)
	}
	if !tenant.IsValidSlug(req.Slug) {
		writeBadRequest(w, "slug must be lowercase alphanumeric with hyphens")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing branch password", "error", err)
		writeInternalError(w)
		return
	}

	branch := &tenant.Branch{
		OrganizationID: id.Organization.ID,
		Slug:           req.Slug,
		Title:          req.Title,
		PasswordHash:   hash,
		Metadata:       req.Metadata,
	}

	const maxSlugAttempts = 5
	baseSlug := branch.Slug
	for attempt := 0; ; attempt++ {
		err = s.branches.Create(r.Context(), branch)
		if err == nil {
			break
		}
		if !errors.Is(err, tenant.ErrSlugTaken) {
			s.logger.Error("creating branch", "error", err)
			writeInternalError(w)
			return
		}
		// Derived slugs get a disambiguating suffix; explicit ones are
		// the caller's to fix.
		if explicitSlug || attempt == maxSlugAttempts {
			writeBadRequest(w, "slug already in use")
			return
		}
		branch.ID = ""
		branch.Slug = fmt.Sprintf("%s-%d", baseSlug, attempt+2)
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionCreate,
		EntityType: "branch",
		EntityID:   branch.ID,
		Subject:    id.Organization.Slug,
		Source:     "api",
	})

	writeEnvelope(w, http.StatusCreated, "Branch created successfully", branch)
}

// handleAdminDeleteBranch deletes one of the authenticated
// organization's branches by slug.
func (s *Server) handleAdminDeleteBranch(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	slug := chi.URLParam(r, "branch_slug")

	if err := s.branches.Delete(r.Context(), id.Organization.ID, slug); err != nil {
		if errors.Is(err, tenant.ErrBranchNotFound) {
			writeNotFound(w, "Branch not found")
			return
		}
		s.logger.Error("deleting branch", "slug", slug, "error", err)
		writeInternalError(w)
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionDelete,
		EntityType: "branch",
		EntityID:   slug,
		Subject:    id.Organization.Slug,
		Source:     "api",
	})

	writeEnvelope(w, http.StatusOK, "Branch deleted successfully", nil)
}

// handleSiblingBranches lists the authenticated branch's siblings, the
// candidate transfer destinations.
func (s *Server) handleSiblingBranches(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	branches, err := s.branches.ListSiblings(r.Context(), id.Organization.ID, id.Branch.ID)
	if err != nil {
		s.logger.Error("listing sibling branches", "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Branches fetched successfully", map[string]any{
		"branches": toBranchViews(branches),
		"count":    len(branches),
	})
}
