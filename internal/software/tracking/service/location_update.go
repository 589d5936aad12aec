package service

import (
	"context"
	"time"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
	"courier-track/internal/general/contracts"
	"courier-track/internal/ports"
)

// HandleLocationUpdate authorizes and applies one driver-location-update.
// Order matters: nothing is mutated until the ownership lookup resolves and
// the guard passes; the in-memory presence is then updated first, watchers are
// notified, and persistence runs last. A persistence failure is logged but
// does not undo the live update: losing one row is tolerable, losing live
// tracking is not.
func (service *trackingService) HandleLocationUpdate(ctx context.Context, in ports.LocationUpdateInput) (ports.LocationUpdateResult, *tracking.Denial) {
	corrID := generateCorrelationID()

	// the only suspension point before mutation: resolve delivery ownership
	var own *delivery.Ownership
	if in.Update.DeliveryID != "" {
		resolved, err := service.resolveOwnership(ctx, in.Update.DeliveryID)
		if err != nil {
			service.logger.Error(ctx, "ownership_lookup_failed", "Failed to resolve delivery ownership", err, map[string]any{
				"delivery_id": in.Update.DeliveryID,
				"driver_id":   in.Conn.UserID,
				"request_id":  corrID,
			})
			return ports.LocationUpdateResult{}, tracking.NewDenial(tracking.DenyInvalidState, "delivery lookup failed, retry shortly")
		}
		own = resolved
	}

	if deny := tracking.AuthorizeLocationUpdate(in.Conn.Role, in.Conn.UserID, in.Update, own); deny != nil {
		if deny.Security {
			service.recordSecurityDenial(ctx, in.Conn, in.Update.DeliveryID, deny)
		}
		service.logger.Error(ctx, "location_update_denied", "Rejected driver location update", deny, map[string]any{
			"driver_id":   in.Conn.UserID,
			"delivery_id": in.Update.DeliveryID,
			"kind":        string(deny.Kind),
			"request_id":  corrID,
		})
		return ports.LocationUpdateResult{}, deny
	}

	now := time.Now().UTC()
	presence := tracking.DriverPresence{
		DriverID:     in.Conn.UserID,
		Latitude:     in.Update.Latitude,
		Longitude:    in.Update.Longitude,
		Heading:      in.Update.Heading,
		DeliveryID:   in.Update.DeliveryID,
		ConnectionID: in.Conn.ConnectionID,
		Verified:     own != nil,
		UpdatedAt:    now,
	}

	// in-memory first: last-writer-wins per driver id
	service.registry.UpsertDriver(presence)

	// fan out to this delivery's watchers, excluding the driver itself
	broadcast := false
	if own != nil {
		service.rooms.Broadcast(own.DeliveryID, contracts.WSDriverLocation{
			Type:       "driver-location",
			DeliveryID: own.DeliveryID,
			DriverID:   in.Conn.UserID,
			Location: contracts.GeoPoint{
				Lat: in.Update.Latitude,
				Lng: in.Update.Longitude,
			},
			HeadingDegrees: in.Update.Heading,
			Timestamp:      now,
			Envelope:       newEnvelope(corrID),
		}, in.Conn.ConnectionID)
		broadcast = true
	}

	// persist last-known state; tolerated failure (upstream)
	if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		return service.driverState.UpsertLocation(ctx, presence)
	}); err != nil {
		service.logger.Error(ctx, "driver_state_write_failed", "Failed to persist driver location; live update kept", err, map[string]any{
			"driver_id":  in.Conn.UserID,
			"request_id": corrID,
		})
	}

	// analytics fanout; best effort
	locMsg := contracts.LocationUpdateMessage{
		DriverID:       in.Conn.UserID,
		DeliveryID:     in.Update.DeliveryID,
		Location:       contracts.GeoPoint{Lat: in.Update.Latitude, Lng: in.Update.Longitude},
		HeadingDegrees: in.Update.Heading,
		Timestamp:      now,
		Envelope:       newEnvelope(corrID),
	}
	if err := service.broadcastLocationUpdate(ctx, locMsg); err != nil {
		service.logger.Error(ctx, "location_update_publish_failed", "Failed to broadcast location update to RabbitMQ", err, map[string]any{
			"driver_id":  in.Conn.UserID,
			"request_id": corrID,
		})
	}

	service.logger.Info(ctx, "driver_location_updated", "Driver location updated", map[string]any{
		"driver_id":   in.Conn.UserID,
		"delivery_id": in.Update.DeliveryID,
		"lat":         in.Update.Latitude,
		"lng":         in.Update.Longitude,
		"broadcast":   broadcast,
		"request_id":  corrID,
	})

	return ports.LocationUpdateResult{
		DriverID:   in.Conn.UserID,
		DeliveryID: in.Update.DeliveryID,
		Broadcast:  broadcast,
		UpdatedAt:  now,
	}, nil
}
