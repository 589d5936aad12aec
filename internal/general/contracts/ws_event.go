package contracts

import "time"

// WSDriverLocation mirrors "driver-location" pushes to tracking watchers.
type WSDriverLocation struct {
	Type           string    `json:"type"` // "driver-location"
	DeliveryID     string    `json:"delivery_id"`
	DriverID       string    `json:"driver_id"`
	Location       GeoPoint  `json:"location"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}

// WSDeliveryStatus mirrors "delivery-status" pushes to tracking watchers.
type WSDeliveryStatus struct {
	Type       string    `json:"type"` // "delivery-status"
	DeliveryID string    `json:"delivery_id"`
	Status     string    `json:"status"`
	DriverID   string    `json:"driver_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}

// WSError is the uniform error frame sent on any rejected client event.
type WSError struct {
	Type      string `json:"type"` // "error"
	Code      string `json:"code"` // denial kind, e.g. "unauthorized"
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WSAck confirms an accepted client event.
type WSAck struct {
	Type       string    `json:"type"` // "<event>_ack"
	DeliveryID string    `json:"delivery_id,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}
