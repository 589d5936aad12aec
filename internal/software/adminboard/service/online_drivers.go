package service

import (
	"context"
	"fmt"
	"strconv"

	"courier-track/internal/ports"
)

const (
	defaultDriverListLimit = 50
	maxDriverListLimit     = 500
)

// GetOnlineDrivers lists persisted driver states that are currently marked
// online, most recently seen first. The limit is accepted as a raw query
// value; junk falls back to the default.
func (service *adminService) GetOnlineDrivers(ctx context.Context, limit string) (ports.OnlineDriversResult, error) {
	n := parseListLimit(limit, defaultDriverListLimit, maxDriverListLimit)

	var rows []ports.DriverStateRow
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var txErr error
		rows, txErr = service.driverState.ListOnline(txCtx, n)
		if txErr != nil {
			return fmt.Errorf("list online drivers: %w", txErr)
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "online_drivers_query_failed", "failed to list online drivers", err, nil)
		return ports.OnlineDriversResult{}, err
	}

	if rows == nil {
		rows = []ports.DriverStateRow{}
	}
	return ports.OnlineDriversResult{Drivers: rows, TotalCount: len(rows)}, nil
}

func parseListLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
