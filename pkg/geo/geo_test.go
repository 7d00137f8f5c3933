package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/shiva/ridefare/internal/model"
)

var (
	begusarai = model.Location{Lat: 25.4184, Lng: 86.1274}
	patna     = model.Location{Lat: 25.5941, Lng: 85.1376}
)

func TestHaversineKm_SamePoint(t *testing.T) {
	got := HaversineKm(begusarai, begusarai)
	if got != 0 {
		t.Errorf("HaversineKm(same point) = %v, want 0", got)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Begusarai to Patna, straight line (~101 km).
	got := HaversineKm(begusarai, patna)
	wantMin, wantMax := 100.5, 102.0
	if got < wantMin || got > wantMax {
		t.Errorf("HaversineKm(Begusarai→Patna) = %.2f km, want between %.1f and %.1f", got, wantMin, wantMax)
	}
}

func TestEstimateDistanceKm_Floor(t *testing.T) {
	got, err := EstimateDistanceKm(begusarai, begusarai)
	if err != nil {
		t.Fatalf("EstimateDistanceKm() error = %v", err)
	}
	if got != MinTripKm {
		t.Errorf("EstimateDistanceKm(same point) = %v, want %v", got, MinTripKm)
	}

	// ~110 m apart still collapses to the floor.
	near := model.Location{Lat: begusarai.Lat + 0.001, Lng: begusarai.Lng}
	got, err = EstimateDistanceKm(begusarai, near)
	if err != nil {
		t.Fatalf("EstimateDistanceKm() error = %v", err)
	}
	if got != MinTripKm {
		t.Errorf("EstimateDistanceKm(adjacent) = %v, want %v", got, MinTripKm)
	}
}

func TestEstimateDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]model.Location{
		{begusarai, patna},
		{{Lat: 28.7041, Lng: 77.1025}, {Lat: 28.5355, Lng: 77.3910}},
		{{Lat: -33.8688, Lng: 151.2093}, {Lat: 51.5074, Lng: -0.1278}},
	}
	for _, p := range pairs {
		d1, err1 := EstimateDistanceKm(p[0], p[1])
		d2, err2 := EstimateDistanceKm(p[1], p[0])
		if err1 != nil || err2 != nil {
			t.Fatalf("unexpected errors: %v, %v", err1, err2)
		}
		if math.Abs(d1-d2) > 1e-9 {
			t.Errorf("not symmetric for %v: %v vs %v", p, d1, d2)
		}
		if d1 < MinTripKm {
			t.Errorf("distance %v below floor", d1)
		}
	}
}

func TestEstimateDistanceKm_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		pickup      model.Location
		destination model.Location
	}{
		{"latitude too high", model.Location{Lat: 90.5, Lng: 0}, patna},
		{"latitude too low", model.Location{Lat: -91, Lng: 0}, patna},
		{"longitude too high", begusarai, model.Location{Lat: 0, Lng: 180.01}},
		{"longitude too low", begusarai, model.Location{Lat: 0, Lng: -200}},
		{"NaN latitude", model.Location{Lat: math.NaN(), Lng: 0}, patna},
		{"infinite longitude", begusarai, model.Location{Lat: 0, Lng: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateDistanceKm(tt.pickup, tt.destination)
			if !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("EstimateDistanceKm() error = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestValidateLocation_Boundaries(t *testing.T) {
	for _, loc := range []model.Location{
		{Lat: 90, Lng: 180},
		{Lat: -90, Lng: -180},
		{Lat: 0, Lng: 0},
	} {
		if err := ValidateLocation(loc); err != nil {
			t.Errorf("ValidateLocation(%v) = %v, want nil", loc, err)
		}
	}
}

func TestEstimateDurationMinutes(t *testing.T) {
	tests := []struct {
		km   float64
		want int
	}{
		{2.0, 5},    // 4.8 min
		{25.0, 60},  // exactly one hour
		{25.01, 61}, // any fraction rounds up
		{101.23677240317274, 243},
	}
	for _, tt := range tests {
		if got := EstimateDurationMinutes(tt.km); got != tt.want {
			t.Errorf("EstimateDurationMinutes(%v) = %d, want %d", tt.km, got, tt.want)
		}
	}
}
