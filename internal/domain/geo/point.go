package geo

import (
	"errors"
	"math"
)

// Point is a plain latitude/longitude pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Validate checks that the point lies within valid WGS84 ranges. NaN and
// infinities are rejected by the range comparisons.
func (p Point) Validate() error {
	if err := ValidateLatLng(p.Latitude, p.Longitude); err != nil {
		return err
	}
	return nil
}

// ValidateLatLng checks raw latitude/longitude values.
func ValidateLatLng(lat, lng float64) error {
	if !(lat >= -90 && lat <= 90) {
		return ErrInvalidLatitude
	}
	if !(lng >= -180 && lng <= 180) {
		return ErrInvalidLongitude
	}
	return nil
}

// HaversineKM returns the great-circle distance between two points in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0 // Earth radius in km
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
