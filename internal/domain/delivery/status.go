package delivery

import (
	"errors"
	"strings"
)

// Status is a delivery status as stored in the `deliveries` table.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusPickedUp  Status = "PICKED_UP"
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var ErrInvalidStatus = errors.New("invalid delivery status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed delivery status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusAccepted, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Active reports whether a driver may still stream location updates for a
// delivery in this status.
func (status Status) Active() bool {
	switch status {
	case StatusAccepted, StatusPickedUp, StatusInTransit:
		return true
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal/completed state.
func (status Status) Terminal() bool {
	return status == StatusDelivered || status == StatusCancelled
}
