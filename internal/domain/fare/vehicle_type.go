package fare

import (
	"errors"
	"strings"
)

// VehicleType is a courier vehicle class used for fare rate lookup.
type VehicleType string

const (
	VehicleBike      VehicleType = "bike"
	VehicleAuto      VehicleType = "auto"
	VehicleMiniTruck VehicleType = "mini-truck"
	VehiclePickup    VehicleType = "pickup"
)

var ErrInvalidVehicleType = errors.New("invalid vehicle type")

// ParseVehicleType normalizes (lowercases+trims) and validates a vehicle type string.
// Fare computation itself is lenient about unknown types (see rateFor); this
// strict variant exists for callers that want to reject bad input up front.
func ParseVehicleType(in string) (VehicleType, error) {
	vt := VehicleType(strings.ToLower(strings.TrimSpace(in)))
	if vt.Valid() {
		return vt, nil
	}
	return "", ErrInvalidVehicleType
}

// Valid reports whether vehicleType is one of the allowed vehicle type constants.
func (vehicleType VehicleType) Valid() bool {
	switch vehicleType {
	case VehicleBike, VehicleAuto, VehicleMiniTruck, VehiclePickup:
		return true
	default:
		return false
	}
}

// String returns the string representation of the VehicleType.
func (vehicleType VehicleType) String() string {
	return string(vehicleType)
}
