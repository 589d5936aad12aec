package fare

import (
	"math"
	"time"
)

// Pricing constants. Rates are flat per vehicle class; everything downstream
// of the rate table is shared arithmetic.
const (
	fuelAdjustmentRate = 0.15
	tollFreeDistanceKM = 10.0
	tollRatePerKM      = 2.0
	surgeMultiplier    = 1.2
	commissionRate     = 0.12
)

// Breakdown is the full priced result of a trip: every additive component,
// the surge multiplier applied, and the commission split.
type Breakdown struct {
	BaseFare           float64     `json:"base_fare"`
	DistanceCost       float64     `json:"distance_cost"`
	FuelAdjustment     float64     `json:"fuel_adjustment"`
	TollCharges        float64     `json:"toll_charges"`
	SurgeFactor        float64     `json:"surge_factor"`
	PlatformCommission float64     `json:"platform_commission"`
	TotalFare          float64     `json:"total_fare"`
	DriverEarnings     float64     `json:"driver_earnings"`
	EstimatedMinutes   int         `json:"estimated_duration_minutes"`
	VehicleType        VehicleType `json:"vehicle_type"`
}

type rates struct {
	base  float64
	perKM float64
}

// rateFor looks up the rate card for a vehicle class. Unknown types fall back
// to the auto rate rather than failing; callers that want strict validation
// use ParseVehicleType first.
func rateFor(vt VehicleType) rates {
	switch vt {
	case VehicleBike:
		return rates{base: 30, perKM: 8}
	case VehicleAuto:
		return rates{base: 50, perKM: 12}
	case VehicleMiniTruck:
		return rates{base: 150, perKM: 25}
	case VehiclePickup:
		return rates{base: 100, perKM: 18}
	default:
		return rates{base: 50, perKM: 12}
	}
}

// SurgeFactor returns the peak-hour multiplier for the given time: 1.2 during
// the morning (08:00-10:59) and evening (17:00-20:59) windows, 1.0 otherwise.
func SurgeFactor(now time.Time) float64 {
	hour := now.Hour()
	if (hour >= 8 && hour <= 10) || (hour >= 17 && hour <= 20) {
		return surgeMultiplier
	}
	return 1.0
}

// Compute prices a trip deterministically from distance, vehicle class,
// duration, and time of day. The invariants hold exactly:
//
//	totalFare      = round((base + distance + fuel + toll) * surge)
//	commission     = round(subtotal * commissionRate)   // pre-rounded subtotal
//	driverEarnings = totalFare - commission
func Compute(distanceKM float64, vt VehicleType, durationMin int, now time.Time) Breakdown {
	if distanceKM < 0 {
		distanceKM = 0
	}
	if durationMin < 0 {
		durationMin = 0
	}

	rate := rateFor(vt)
	distanceCost := distanceKM * rate.perKM
	fuelAdjustment := math.Round(distanceCost * fuelAdjustmentRate)

	var tollCharges float64
	if distanceKM > tollFreeDistanceKM {
		tollCharges = math.Round(distanceKM * tollRatePerKM)
	}

	surge := SurgeFactor(now)
	subtotal := (rate.base + distanceCost + fuelAdjustment + tollCharges) * surge

	totalFare := math.Round(subtotal)
	platformCommission := math.Round(subtotal * commissionRate)

	return Breakdown{
		BaseFare:           rate.base,
		DistanceCost:       distanceCost,
		FuelAdjustment:     fuelAdjustment,
		TollCharges:        tollCharges,
		SurgeFactor:        surge,
		PlatformCommission: platformCommission,
		TotalFare:          totalFare,
		DriverEarnings:     totalFare - platformCommission,
		EstimatedMinutes:   durationMin,
		VehicleType:        vt,
	}
}

// EstimateDurationMinutes converts a distance to an expected trip duration
// with a simple average-city-speed heuristic, ceiled to whole minutes.
func EstimateDurationMinutes(distanceKM float64) int {
	const avgSpeedKMH = 21.0
	minutes := (distanceKM / avgSpeedKMH) * 60.0

	m := int(math.Ceil(minutes))
	if m < 1 {
		return 1
	}
	return m
}
