package api

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

// writeEnvelope writes a success envelope with the given status, message
// and optional data payload.
func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Message:    message,
		Error:      message,
	})
}

// writeBadRequest writes a 400 error envelope.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeUnauthorized writes a 401 error envelope.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

// writeNotFound writes a 404 error envelope.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeInternalError writes a 500 error envelope with a generic message.
// Details stay in the logs.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSON decodes a request body into dst, rejecting unknown shapes
// gently: any decode failure is a client error.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close() //nolint:errcheck // nothing useful to do with a close error
	return json.NewDecoder(r.Body).Decode(dst)
}
