package handler

import (
	"context"
	"net/http"
)

// handleOnlineDrivers serves GET /admin/drivers/online?limit=N.
func (handler *AdminHTTPHandler) handleOnlineDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	ctx, cancel := context.WithTimeout(ctx, adminQueryTimeout)
	defer cancel()

	result, err := handler.svc.GetOnlineDrivers(ctx, r.URL.Query().Get("limit"))
	if err != nil {
		handler.writeQueryError(ctx, w, "failed to list online drivers", err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
