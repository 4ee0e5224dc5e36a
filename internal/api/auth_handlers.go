package api

import (
	"errors"
	"net/http"

	"github.com/mnv-dev/vyahan-core/internal/audit"
	"github.com/mnv-dev/vyahan-core/internal/auth"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// handleCreateOrganization registers a new organization. Open signup:
// the caller picks slug and subdomain, both must be free.
func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string         `json:"title"`
		Slug      string         `json:"slug"`
		Subdomain string         `json:"subdomain"`
		Password  string         `json:"password"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body")
		return
	}

	if req.Title == "" || req.Password == "" {
		writeBadRequest(w, "title and password are required")
		return
	}
	if req.Slug == "" {
		req.Slug = tenant.Slugify(req.Title)
	}
	if req.Subdomain == "" {
		req.Subdomain = req.Slug
	}
	if !tenant.IsValidSlug(req.Slug) || !tenant.IsValidSlug(req.Subdomain) {
		writeBadRequest(w, "slug and subdomain must be lowercase alphanumeric with hyphens")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing organization password", "error", err)
		writeInternalError(w)
		return
	}

	org := &tenant.Organization{
		Slug:         req.Slug,
		Subdomain:    req.Subdomain,
		Title:        req.Title,
		PasswordHash: hash,
		Metadata:     req.Metadata,
	}
	if err := s.orgs.Create(r.Context(), org); err != nil {
		switch {
		case errors.Is(err, tenant.ErrSlugTaken):
			writeBadRequest(w, "slug already in use")
		case errors.Is(err, tenant.ErrSubdomainTaken):
			writeBadRequest(w, "subdomain already in use")
		default:
			s.logger.Error("creating organization", "error", err)
			writeInternalError(w)
		}
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionCreate,
		EntityType: "organization",
		EntityID:   org.ID,
		Subject:    org.Slug,
		Source:     "api",
	})

	writeEnvelope(w, http.StatusCreated, "Organization created successfully", org)
}

// handleOrganizationLogin exchanges organization credentials for tokens.
func (s *Server) handleOrganizationLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID    string `json:"org_id"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.OrgID == "" || req.Password == "" {
		writeBadRequest(w, "org_id and password are required")
		return
	}

	pair, err := s.auth.LoginOrganization(r.Context(), req.OrgID, req.Password)
	if err != nil {
		s.loginFailed(w, r, err, "organization")
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionLogin,
		EntityType: "organization",
		Subject:    req.OrgID,
		Source:     "api",
	})

	writeEnvelope(w, http.StatusOK, "Login successful", pair)
}

// handleBranchLogin exchanges branch credentials for tokens.
func (s *Server) handleBranchLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BranchID string `json:"branch_id"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.BranchID == "" || req.Password == "" {
		writeBadRequest(w, "branch_id and password are required")
		return
	}

	pair, err := s.auth.LoginBranch(r.Context(), req.BranchID, req.Password)
	if err != nil {
		s.loginFailed(w, r, err, "branch")
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionLogin,
		EntityType: "branch",
		Subject:    req.BranchID,
		Source:     "api",
	})

	writeEnvelope(w, http.StatusOK, "Login successful", pair)
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, err error, entityType string) {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeUnauthorized(w, "Invalid credentials")
		return
	}
	s.logger.Error("login failed", "entity_type", entityType,
		"error", err, "request_id", r.Context().Value(ctxKeyRequestID))
	writeInternalError(w)
}

// handleTokenRefresh rotates a refresh token. The consumed token is
// single-use; any failure collapses to one generic 401 message.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeBadRequest(w, "refresh token is required")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if isTokenRejection(err) {
			writeUnauthorized(w, "Invalid or expired refresh token")
			return
		}
		s.logger.Error("token refresh failed", "error", err,
			"request_id", r.Context().Value(ctxKeyRequestID))
		writeInternalError(w)
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionRefresh,
		EntityType: "token",
		Source:     "api",
	})

	writeEnvelope(w, http.StatusOK, "Token refreshed", pair)
}

// handleLogout revokes a refresh token. Malformed bodies are 400;
// invalid tokens are 400 too, since there is nothing to revoke.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeBadRequest(w, "refresh token is required")
		return
	}

	if err := s.auth.Logout(r.Context(), req.Refresh); err != nil {
		if isTokenRejection(err) {
			writeBadRequest(w, "Invalid refresh token")
			return
		}
		s.logger.Error("logout failed", "error", err,
			"request_id", r.Context().Value(ctxKeyRequestID))
		writeInternalError(w)
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionLogout,
		EntityType: "token",
		Source:     "api",
	})

	writeEnvelope(w, http.StatusOK, "Logout successful", nil)
}

// isTokenRejection reports whether the error is a client-side token
// problem rather than a store fault.
func isTokenRejection(err error) bool {
	return errors.Is(err, auth.ErrTokenInvalid) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrTokenRevoked) ||
		errors.Is(err, auth.ErrWrongTokenUse) ||
		errors.Is(err, auth.ErrSubjectNotFound)
}
