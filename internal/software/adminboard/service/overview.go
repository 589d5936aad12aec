package service

import (
	"context"
	"fmt"
	"time"

	"courier-track/internal/ports"
)

// GetSystemOverview assembles the live platform snapshot. Persisted counters
// are read in a single transaction; in-memory counters come straight from the
// connection registry and room router.
func (service *adminService) GetSystemOverview(ctx context.Context) (ports.SystemOverviewResult, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var (
		activeDeliveries int
		deliveriesToday  int
		persistedOnline  int
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var txErr error
		if activeDeliveries, txErr = service.deliveries.CountActive(txCtx); txErr != nil {
			return fmt.Errorf("count active deliveries: %w", txErr)
		}
		if deliveriesToday, txErr = service.deliveries.CountCreatedBetween(txCtx, dayStart, dayEnd); txErr != nil {
			return fmt.Errorf("count deliveries today: %w", txErr)
		}
		if persistedOnline, txErr = service.driverState.CountOnline(txCtx); txErr != nil {
			return fmt.Errorf("count online drivers: %w", txErr)
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "overview_query_failed", "failed to collect overview metrics", err, nil)
		return ports.SystemOverviewResult{}, err
	}

	result := ports.SystemOverviewResult{
		Timestamp: now,
		Metrics: ports.OverviewMetrics{
			OnlineDrivers:        service.registry.OnlineDriverCount(),
			ActiveConnections:    service.registry.ConnectionCount(),
			ActiveDeliveries:     activeDeliveries,
			WatchedDeliveries:    service.rooms.RoomCount(),
			DeliveriesToday:      deliveriesToday,
			TrackedDriversInMem:  len(service.registry.DriverSnapshot()),
			PersistedOnlineCount: persistedOnline,
		},
	}

	service.logger.Info(ctx, "overview_collected", "system overview collected", map[string]any{
		"active_deliveries":  activeDeliveries,
		"online_drivers":     result.Metrics.OnlineDrivers,
		"active_connections": result.Metrics.ActiveConnections,
	})
	return result, nil
}
