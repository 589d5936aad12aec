package service

import (
	"context"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
	"courier-track/internal/ports"
)

// HandleTrackDelivery authorizes a watcher and joins them to the delivery's
// room. Customers and drivers must be a party to the delivery; admins may
// watch anything.
func (service *trackingService) HandleTrackDelivery(ctx context.Context, in ports.TrackInput) (ports.TrackResult, *tracking.Denial) {
	corrID := generateCorrelationID()

	var own *delivery.Ownership
	if in.DeliveryID != "" {
		resolved, err := service.resolveOwnership(ctx, in.DeliveryID)
		if err != nil {
			service.logger.Error(ctx, "ownership_lookup_failed", "Failed to resolve delivery ownership", err, map[string]any{
				"delivery_id": in.DeliveryID,
				"user_id":     in.Conn.UserID,
				"request_id":  corrID,
			})
			return ports.TrackResult{}, tracking.NewDenial(tracking.DenyInvalidState, "delivery lookup failed, retry shortly")
		}
		own = resolved
	}

	if deny := tracking.AuthorizeTrack(in.Conn.Role, in.Conn.UserID, in.DeliveryID, own); deny != nil {
		if deny.Security {
			service.recordSecurityDenial(ctx, in.Conn, in.DeliveryID, deny)
		}
		service.logger.Error(ctx, "track_delivery_denied", "Rejected tracking subscription", deny, map[string]any{
			"user_id":     in.Conn.UserID,
			"delivery_id": in.DeliveryID,
			"kind":        string(deny.Kind),
			"request_id":  corrID,
		})
		return ports.TrackResult{}, deny
	}

	service.rooms.Join(own.DeliveryID, in.Conn.ConnectionID)

	service.logger.Info(ctx, "tracking_started", "Watcher joined delivery room", map[string]any{
		"user_id":     in.Conn.UserID,
		"delivery_id": own.DeliveryID,
		"status":      own.Status.String(),
		"watchers":    service.rooms.MemberCount(own.DeliveryID),
		"request_id":  corrID,
	})

	return ports.TrackResult{
		DeliveryID: own.DeliveryID,
		Status:     own.Status.String(),
		Watchers:   service.rooms.MemberCount(own.DeliveryID),
	}, nil
}

// HandleStopTracking removes the watcher from the delivery's room. Leaving a
// room never joined (or an unknown delivery) is a silent no-op.
func (service *trackingService) HandleStopTracking(ctx context.Context, in ports.StopTrackingInput) {
	if in.DeliveryID == "" {
		return
	}
	service.rooms.Leave(in.DeliveryID, in.Conn.ConnectionID)

	service.logger.Info(ctx, "tracking_stopped", "Watcher left delivery room", map[string]any{
		"user_id":     in.Conn.UserID,
		"delivery_id": in.DeliveryID,
		"watchers":    service.rooms.MemberCount(in.DeliveryID),
	})
}
