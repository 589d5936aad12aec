package contracts

import "time"

// DriverStatusMessage is published by Tracking Service.
// Routing key: "driver.status.{driver_id}" on ExchangeCourierTopic.
type DriverStatusMessage struct {
	DriverID   string    `json:"driver_id"`
	Status     string    `json:"status"` // ONLINE|OFFLINE
	DeliveryID string    `json:"delivery_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}
