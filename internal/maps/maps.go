// Package maps wraps the Google Maps Platform calls the API exposes:
// place autocomplete, forward geocoding and road distance/time.
package maps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/shiva/ridefare/config"
	"github.com/shiva/ridefare/internal/model"
)

var (
	// ErrNotConfigured is returned by New when no API key is set.
	ErrNotConfigured = errors.New("maps: no API key configured")
	// ErrNoResults means the provider answered but found nothing usable.
	ErrNoResults = errors.New("maps: no results")
)

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// Distance is a road distance in meters with the provider's display text.
type Distance struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Duration is a travel time in seconds with the provider's display text.
type Duration struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// DistanceTime is the road distance and driving time between two places.
type DistanceTime struct {
	Distance Distance `json:"distance"`
	Duration Duration `json:"duration"`
}

// Service calls Google Maps with the configured region and language bias.
type Service struct {
	client   *maps.Client
	region   string
	language string
}

// New creates a maps service. Extra client options are appended after the
// API key (tests use maps.WithBaseURL).
func New(cfg config.MapsConfig, opts ...maps.ClientOption) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Service{client: client, region: cfg.Region, language: cfg.Language}, nil
}

// GetCoordinates geocodes an address to its first match.
func (s *Service) GetCoordinates(ctx context.Context, address string) (model.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.Location{}, fmt.Errorf("%w: empty address", ErrNoResults)
	}

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   s.region,
		Language: s.language,
	})
	if err != nil {
		return model.Location{}, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(results) == 0 {
		return model.Location{}, fmt.Errorf("%w: %q", ErrNoResults, address)
	}

	loc := results[0].Geometry.Location
	return model.Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// GetDistanceTime returns the driving distance and time between two
// addresses.
func (s *Service) GetDistanceTime(ctx context.Context, origin, destination string) (*DistanceTime, error) {
	resp, err := s.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
		Language:     s.language,
	})
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("%w: %q to %q", ErrNoResults, origin, destination)
	}

	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("%w: %q to %q (%s)", ErrNoResults, origin, destination, el.Status)
	}
	return &DistanceTime{
		Distance: Distance{Text: el.Distance.HumanReadable, Value: el.Distance.Meters},
		Duration: Duration{Text: minutesText(el.Duration), Value: int(el.Duration.Seconds())},
	}, nil
}

// GetSuggestions returns autocomplete predictions for partial input,
// restricted to the configured region.
func (s *Service) GetSuggestions(ctx context.Context, input string) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []Suggestion{}, nil
	}

	req := &maps.PlaceAutocompleteRequest{
		Input:    input,
		Language: s.language,
	}
	if s.region != "" {
		req.Components = map[maps.Component][]string{maps.ComponentCountry: {s.region}}
	}

	resp, err := s.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place autocomplete failed: %w", err)
	}

	out := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Suggestion{Description: p.Description, PlaceID: p.PlaceID})
	}
	return out, nil
}

func minutesText(d time.Duration) string {
	return fmt.Sprintf("%d min", int(math.Ceil(d.Minutes())))
}
