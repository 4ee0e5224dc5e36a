package api

import (
	"net/http"
)

// handleHealth reports service health including a database ping.
// A failing store returns 503 with no tenant or schema detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Service unavailable")
			return
		}
	}

	writeEnvelope(w, http.StatusOK, "OK", map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
