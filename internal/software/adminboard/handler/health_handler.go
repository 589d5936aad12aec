package handler

import "net/http"

// handleHealth serves GET /admin/health as an unauthenticated liveness probe.
func (handler *AdminHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "admin-service",
	})
}
