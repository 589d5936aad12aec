package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"courier-track/internal/domain/fare"
	"courier-track/internal/domain/geo"
	"courier-track/internal/ports"
)

var errBadDistance = errors.New("distance_km must be non-negative")

// QuoteFare computes a fare breakdown for a prospective trip. Distance may be
// supplied directly (from the routing provider) or derived as the straight
// line between pickup and drop. Pure computation, no I/O.
func (service *trackingService) QuoteFare(ctx context.Context, in ports.FareQuoteInput) (fare.Breakdown, error) {
	var distanceKM float64
	if in.DistanceKM != nil {
		if *in.DistanceKM < 0 {
			return fare.Breakdown{}, errBadDistance
		}
		distanceKM = *in.DistanceKM
	} else {
		if err := geo.ValidateLatLng(in.PickupLatitude, in.PickupLongitude); err != nil {
			return fare.Breakdown{}, err
		}
		if err := geo.ValidateLatLng(in.DropLatitude, in.DropLongitude); err != nil {
			return fare.Breakdown{}, err
		}
		distanceKM = geo.HaversineKM(in.PickupLatitude, in.PickupLongitude, in.DropLatitude, in.DropLongitude)
	}

	duration := in.DurationMinutes
	if duration <= 0 {
		duration = fare.EstimateDurationMinutes(distanceKM)
	}

	// unknown vehicle types intentionally fall back to the auto rate
	vt := fare.VehicleType(strings.ToLower(strings.TrimSpace(in.VehicleType)))
	breakdown := fare.Compute(distanceKM, vt, duration, time.Now())

	service.logger.Info(ctx, "fare_quoted", "Fare quote computed", map[string]any{
		"vehicle_type":     breakdown.VehicleType,
		"distance_km":      distanceKM,
		"duration_minutes": duration,
		"total_fare":       breakdown.TotalFare,
		"surge_factor":     breakdown.SurgeFactor,
	})

	return breakdown, nil
}
