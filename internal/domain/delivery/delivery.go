package delivery

import (
	"errors"
	"strings"
)

// Ownership is the slice of a delivery record the tracking core needs to
// authorize publishers and subscribers: who ordered it, who carries it, and
// where it is in its lifecycle.
type Ownership struct {
	DeliveryID string
	CustomerID string
	DriverID   string // empty until a driver is assigned
	Status     Status
}

var (
	ErrDeliveryIDRequired = errors.New("delivery id is required")
	ErrCustomerRequired   = errors.New("customer id is required")
	ErrNotFound           = errors.New("delivery not found")
)

// NewOwnership validates and constructs an Ownership record.
func NewOwnership(deliveryID, customerID, driverID string, status Status) (*Ownership, error) {
	if deliveryID = strings.TrimSpace(deliveryID); deliveryID == "" {
		return nil, ErrDeliveryIDRequired
	}
	if customerID = strings.TrimSpace(customerID); customerID == "" {
		return nil, ErrCustomerRequired
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	return &Ownership{
		DeliveryID: deliveryID,
		CustomerID: customerID,
		DriverID:   strings.TrimSpace(driverID),
		Status:     status,
	}, nil
}

// AssignedTo reports whether the given driver is the one assigned to this delivery.
func (own *Ownership) AssignedTo(driverID string) bool {
	return own.DriverID != "" && own.DriverID == driverID
}

// PartyTo reports whether the given user participates in this delivery as its
// customer or its assigned driver.
func (own *Ownership) PartyTo(userID string) bool {
	return own.CustomerID == userID || own.AssignedTo(userID)
}
