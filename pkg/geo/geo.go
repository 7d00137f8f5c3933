// Package geo provides geographic utility functions for fare estimation.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates.
// Travel time is estimated using a constant average urban speed.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/shiva/ridefare/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// AverageSpeedKmph is the assumed average city driving speed.
	AverageSpeedKmph = 25.0

	// MinTripKm is the floor applied to every quoted distance, so adjacent
	// points still produce a non-trivial fare.
	MinTripKm = 2.0
)

// ErrInvalidCoordinate is wrapped by every coordinate validation failure.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ─── Validation ─────────────────────────────────────────────

// ValidateLocation rejects non-finite values and points outside
// [-90, 90] latitude / [-180, 180] longitude.
func ValidateLocation(loc model.Location) error {
	switch {
	case math.IsNaN(loc.Lat) || math.IsInf(loc.Lat, 0):
		return fmt.Errorf("%w: latitude is not a finite number", ErrInvalidCoordinate)
	case math.IsNaN(loc.Lng) || math.IsInf(loc.Lng, 0):
		return fmt.Errorf("%w: longitude is not a finite number", ErrInvalidCoordinate)
	case loc.Lat < -90 || loc.Lat > 90:
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, loc.Lat)
	case loc.Lng < -180 || loc.Lng > 180:
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, loc.Lng)
	}
	return nil
}

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
// Inputs are not validated.
func HaversineKm(a, b model.Location) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLng*sinLng

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateDistanceKm returns the haversine distance between pickup and
// destination, clamped to at least MinTripKm.
func EstimateDistanceKm(pickup, destination model.Location) (float64, error) {
	if err := ValidateLocation(pickup); err != nil {
		return 0, fmt.Errorf("pickup: %w", err)
	}
	if err := ValidateLocation(destination); err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}
	return math.Max(HaversineKm(pickup, destination), MinTripKm), nil
}

// ─── Time ───────────────────────────────────────────────────

// EstimateDurationMinutes returns the whole minutes needed to cover
// distanceKm at AverageSpeedKmph, rounded up.
func EstimateDurationMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / AverageSpeedKmph * 60))
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
