package tracking

import (
	"strings"

	"courier-track/internal/domain/delivery"
	"courier-track/internal/domain/geo"
	"courier-track/internal/domain/user"
)

// The guard is pure: callers resolve delivery ownership through the store
// first (the only suspension point) and pass the result in. Every location
// write and tracking subscription must pass through these checks before any
// registry or room mutation.

// LocationUpdate is the payload of a driver-location-update event as seen by the guard.
type LocationUpdate struct {
	Latitude   float64
	Longitude  float64
	Heading    float64
	DeliveryID string
}

// AuthorizeLocationUpdate enforces the rules for driver-location-update:
// the caller must hold the DRIVER role, coordinates must be in range, and when
// a delivery id is attached the delivery must be assigned to the caller and in
// an active status. own must be the resolved ownership for upd.DeliveryID, or
// nil when no delivery id is attached.
func AuthorizeLocationUpdate(role user.Role, callerID string, upd LocationUpdate, own *delivery.Ownership) *Denial {
	if !role.IsDriver() {
		return unauthorized("only drivers may publish location updates")
	}
	if err := geo.ValidateLatLng(upd.Latitude, upd.Longitude); err != nil {
		return malformed(err.Error())
	}

	if strings.TrimSpace(upd.DeliveryID) == "" {
		return nil
	}
	if own == nil {
		return notFound("delivery " + upd.DeliveryID + " not found")
	}
	if !own.AssignedTo(callerID) {
		return unauthorized("delivery " + own.DeliveryID + " is not assigned to this driver")
	}
	if !own.Status.Active() {
		return invalidState("delivery " + own.DeliveryID + " is not active (status " + own.Status.String() + ")")
	}
	return nil
}

// AuthorizeTrack enforces the ownership rule for track-delivery: the caller
// must be the delivery's customer, its assigned driver, or an admin. own is
// the resolved ownership, or nil when the delivery does not exist.
func AuthorizeTrack(role user.Role, callerID, deliveryID string, own *delivery.Ownership) *Denial {
	if strings.TrimSpace(deliveryID) == "" {
		return malformed("delivery id is required")
	}
	if own == nil {
		return notFound("delivery " + deliveryID + " not found")
	}
	if role.IsAdmin() {
		return nil
	}
	if !own.PartyTo(callerID) {
		return unauthorized("caller is not a party to delivery " + own.DeliveryID)
	}
	return nil
}
