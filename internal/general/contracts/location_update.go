package contracts

import "time"

// LocationUpdateMessage is broadcast by Tracking Service.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type LocationUpdateMessage struct {
	DriverID       string    `json:"driver_id"`
	DeliveryID     string    `json:"delivery_id,omitempty"`
	Location       GeoPoint  `json:"location"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
