package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/tracking"
	"courier-track/internal/general/contracts"
)

const producerName = "tracking-service"

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// resolveOwnership loads delivery ownership inside a short transaction.
// A missing delivery is reported as (nil, nil): the guard turns that into a
// not-found denial. Any other error is an upstream failure.
func (service *trackingService) resolveOwnership(ctx context.Context, deliveryID string) (*delivery.Ownership, error) {
	var own *delivery.Ownership
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		o, err := service.deliveries.GetOwnership(ctx, deliveryID)
		if err != nil {
			return err
		}
		own = o
		return nil
	})
	if errors.Is(err, delivery.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return own, nil
}

// recordSecurityDenial persists an audit record for a security-relevant
// refusal. Fire-and-forget: auditing must never block or fail the event
// handler, and must survive the originating request's cancellation.
func (service *trackingService) recordSecurityDenial(ctx context.Context, conn tracking.ConnectionContext, deliveryID string, deny *tracking.Denial) {
	bg := context.WithoutCancel(ctx)
	go func() {
		details, _ := json.Marshal(map[string]any{
			"connection_id": conn.ConnectionID,
			"role":          conn.Role.String(),
			"remote_ip":     conn.RemoteIP,
			"kind":          string(deny.Kind),
		})
		err := service.uow.WithinTx(bg, func(ctx context.Context) error {
			return service.audit.InsertSecurityEvent(ctx, conn.UserID, deliveryID, deny.Message, string(details), time.Now().UTC())
		})
		if err != nil {
			service.logger.Error(bg, "security_event_write_failed", "Failed to persist security event", err, map[string]any{
				"user_id":     conn.UserID,
				"delivery_id": deliveryID,
			})
		}
	}()
}

// recordLifecycleEvent persists a connect/disconnect audit record, same
// fire-and-forget contract as recordSecurityDenial.
func (service *trackingService) recordLifecycleEvent(ctx context.Context, conn tracking.ConnectionContext, what string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		details, _ := json.Marshal(map[string]any{
			"event":         what,
			"connection_id": conn.ConnectionID,
			"role":          conn.Role.String(),
			"remote_ip":     conn.RemoteIP,
			"user_agent":    conn.UserAgent,
			"duration_s":    conn.Duration(time.Now()).Seconds(),
		})
		err := service.uow.WithinTx(bg, func(ctx context.Context) error {
			return service.audit.InsertLifecycleEvent(ctx, conn.UserID, string(details), time.Now().UTC())
		})
		if err != nil {
			service.logger.Error(bg, "lifecycle_event_write_failed", "Failed to persist lifecycle event", err, map[string]any{
				"user_id": conn.UserID,
				"event":   what,
			})
		}
	}()
}

// broadcastLocationUpdate broadcasts a location update using the fanout exchange.
// Fanout ignores routing keys; pass an empty routing key.
func (service *trackingService) broadcastLocationUpdate(ctx context.Context, msg contracts.LocationUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeLocationFanout, "", body); err != nil {
		return err
	}

	service.logger.Info(ctx, "location_update_published", "Broadcasted location update to RabbitMQ", map[string]any{
		"driver_id":   msg.DriverID,
		"delivery_id": msg.DeliveryID,
		"lat":         msg.Location.Lat,
		"lng":         msg.Location.Lng,
	})

	return nil
}

// publishDriverStatus sends a driver status update to the courier_topic
// exchange using routing key "driver.status.{driver_id}".
func (service *trackingService) publishDriverStatus(ctx context.Context, msg contracts.DriverStatusMessage) error {
	routingKey := contracts.RouteDriverStatusPrefix + msg.DriverID

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeCourierTopic, routingKey, body); err != nil {
		return err
	}

	service.logger.Info(ctx, "driver_status_published", "Published driver status to RabbitMQ", map[string]any{
		"routing_key": routingKey,
		"driver_id":   msg.DriverID,
		"status":      msg.Status,
		"delivery_id": msg.DeliveryID,
	})

	return nil
}

func newEnvelope(corrID string) contracts.Envelope {
	return contracts.Envelope{
		CorrelationID: corrID,
		Producer:      producerName,
		SentAt:        time.Now().UTC(),
	}
}
