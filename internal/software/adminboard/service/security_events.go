package service

import (
	"context"
	"fmt"

	"courier-track/internal/ports"
)

const (
	defaultSecurityEventLimit = 100
	maxSecurityEventLimit     = 1000
)

// GetSecurityEvents returns the most recent denied-authorization audit
// records, newest first.
func (service *adminService) GetSecurityEvents(ctx context.Context, limit string) (ports.SecurityEventsResult, error) {
	n := parseListLimit(limit, defaultSecurityEventLimit, maxSecurityEventLimit)

	var rows []ports.AuditEventRow
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var txErr error
		rows, txErr = service.audit.RecentSecurityEvents(txCtx, n)
		if txErr != nil {
			return fmt.Errorf("recent security events: %w", txErr)
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "security_events_query_failed", "failed to list security events", err, nil)
		return ports.SecurityEventsResult{}, err
	}

	if rows == nil {
		rows = []ports.AuditEventRow{}
	}
	return ports.SecurityEventsResult{Events: rows, TotalCount: len(rows)}, nil
}
