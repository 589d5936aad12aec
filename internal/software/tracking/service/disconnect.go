package service

import (
	"context"
	"time"

	"courier-track/internal/domain/tracking"
	"courier-track/internal/general/contracts"
)

// Disconnect untangles one closed connection: registry binding, room
// memberships and, for drivers, live presence and the persisted offline flag.
// Every step is fenced by connection id, so a stale disconnect from a
// superseded connection never evicts the newer connection's state.
func (service *trackingService) Disconnect(ctx context.Context, conn tracking.ConnectionContext) {
	corrID := generateCorrelationID()

	service.registry.Unbind(conn.UserID, conn.ConnectionID)
	service.rooms.LeaveAll(conn.ConnectionID)

	if conn.Role.IsDriver() {
		// only the connection that wrote the presence may remove it
		if service.registry.RemoveDriverIfConn(conn.UserID, conn.ConnectionID) {
			now := time.Now().UTC()

			// the socket's context is already dying; detach before persisting
			bg := context.WithoutCancel(ctx)
			if err := service.uow.WithinTx(bg, func(ctx context.Context) error {
				return service.driverState.MarkOffline(ctx, conn.UserID, now)
			}); err != nil {
				service.logger.Error(bg, "driver_offline_write_failed", "Failed to persist driver offline flag", err, map[string]any{
					"driver_id":  conn.UserID,
					"request_id": corrID,
				})
			}

			statusMsg := contracts.DriverStatusMessage{
				DriverID:  conn.UserID,
				Status:    "OFFLINE",
				Timestamp: now,
				Envelope:  newEnvelope(corrID),
			}
			if err := service.publishDriverStatus(bg, statusMsg); err != nil {
				service.logger.Error(bg, "driver_status_publish_failed", "Failed to publish driver status to RabbitMQ", err, map[string]any{
					"driver_id":  conn.UserID,
					"request_id": corrID,
				})
			}
		}
	}

	service.recordLifecycleEvent(ctx, conn, "disconnect")

	service.logger.Info(ctx, "ws_disconnected", "Connection cleaned up", map[string]any{
		"connection_id": conn.ConnectionID,
		"user_id":       conn.UserID,
		"role":          conn.Role.String(),
		"duration_s":    conn.Duration(time.Now()).Seconds(),
		"request_id":    corrID,
	})
}
