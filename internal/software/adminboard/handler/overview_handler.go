package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const adminQueryTimeout = 5 * time.Second

// handleOverview serves GET /admin/overview.
func (handler *AdminHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	ctx, cancel := context.WithTimeout(ctx, adminQueryTimeout)
	defer cancel()

	result, err := handler.svc.GetSystemOverview(ctx)
	if err != nil {
		handler.writeQueryError(ctx, w, "failed to collect system overview", err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

// writeQueryError maps storage errors to HTTP responses.
func (handler *AdminHTTPHandler) writeQueryError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		handler.httpError(ctx, w, http.StatusGatewayTimeout, "query timed out", err)
		return
	}
	handler.httpError(ctx, w, http.StatusInternalServerError, msg, err)
}
