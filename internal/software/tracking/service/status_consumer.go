package service

import (
	"context"
	"encoding/json"
	"time"

	"courier-track/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunBackgroundConsumers subscribes to delivery status transitions published
// by the order-management side and relays them to the delivery's watchers.
func (service *trackingService) RunBackgroundConsumers(ctx context.Context) {
	go func() {
		if err := service.rabbitmq.Consume(ctx, contracts.QueueDeliveryStatus, "tracking-service-delivery-status", 10, service.relayDeliveryStatus); err != nil {
			service.logger.Error(ctx, "mq_consumer_stopped", "Delivery status consumer stopped with error", err,
				map[string]any{"queue": contracts.QueueDeliveryStatus})
		}
	}()

	service.logger.Info(ctx, "mq_consumer_started", "Tracking service MQ consumer started",
		map[string]any{"queue": contracts.QueueDeliveryStatus})
}

// relayDeliveryStatus handles one delivery status message from the queue. The
// room lookup is in-memory; a transition for an unwatched delivery is a cheap
// no-op. Returning an error routes the message to the dead-letter path.
func (service *trackingService) relayDeliveryStatus(ctx context.Context, d amqp.Delivery) error {
	var msg contracts.DeliveryStatusMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		service.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse delivery status message", err,
			map[string]any{"routing_key": d.RoutingKey})
		return err
	}
	if msg.DeliveryID == "" {
		service.logger.Error(ctx, "mq_message_invalid", "Delivery status message missing delivery_id", nil,
			map[string]any{"routing_key": d.RoutingKey})
		return nil // drop, nothing to route
	}

	watchers := service.rooms.MemberCount(msg.DeliveryID)
	if watchers == 0 {
		return nil
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	service.rooms.Broadcast(msg.DeliveryID, contracts.WSDeliveryStatus{
		Type:       "delivery-status",
		DeliveryID: msg.DeliveryID,
		Status:     msg.Status,
		DriverID:   msg.DriverID,
		Timestamp:  ts,
		Envelope:   newEnvelope(msg.CorrelationID),
	}, "")

	service.logger.Info(ctx, "delivery_status_relayed", "Relayed delivery status to watchers", map[string]any{
		"delivery_id": msg.DeliveryID,
		"status":      msg.Status,
		"watchers":    watchers,
	})
	return nil
}
