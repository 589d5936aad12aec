package handler

import (
	"context"
	"net/http"

	"courier-track/internal/general/jwt"
)

// handleSecurityEvents serves GET /admin/security-events?limit=N.
func (handler *AdminHTTPHandler) handleSecurityEvents(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	ctx, cancel := context.WithTimeout(ctx, adminQueryTimeout)
	defer cancel()

	if claims := jwt.RequireClaims(r); claims != nil {
		handler.logger.Info(ctx, "security_events_viewed", "security events requested", map[string]any{
			"admin_id": claims.Subject,
		})
	}

	result, err := handler.svc.GetSecurityEvents(ctx, r.URL.Query().Get("limit"))
	if err != nil {
		handler.writeQueryError(ctx, w, "failed to list security events", err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
