package contracts

import "time"

// DeliveryStatusMessage is published by Tracking Service on transitions
// it observes for a delivery it is broadcasting.
// Routing key: "delivery.status.{status}" on ExchangeCourierTopic.
type DeliveryStatusMessage struct {
	DeliveryID string    `json:"delivery_id"`
	Status     string    `json:"status"` // PENDING|ACCEPTED|PICKED_UP|IN_TRANSIT|DELIVERED|CANCELLED
	DriverID   string    `json:"driver_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}
