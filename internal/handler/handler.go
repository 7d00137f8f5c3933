// Package handler contains HTTP request handlers for the fare API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/maps"
	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/internal/service"
	"github.com/shiva/ridefare/pkg/fare"
)

// errMapsUnavailable is returned by address-based endpoints when no maps
// provider is configured.
var errMapsUnavailable = errors.New("address lookup is not configured")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var ve *fare.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: ve.Error(), Field: ve.Field})
	case errors.Is(err, fare.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
	case errors.Is(err, service.ErrRideNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Ride not found."})
	case errors.Is(err, service.ErrNotAssignedCaptain):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not_assigned", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: err.Error()})
	case errors.Is(err, maps.ErrNoResults):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no_results", Message: err.Error()})
	case errors.Is(err, errMapsUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "maps_unavailable", Message: err.Error()})
	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
}

// decodeJSON reads a JSON body, rejecting unknown fields and trailing data.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &fare.ValidationError{Field: "body", Reason: "invalid JSON body: " + err.Error()}
	}
	if dec.More() {
		return &fare.ValidationError{Field: "body", Reason: "unexpected data after JSON body"}
	}
	return nil
}

// pathID parses a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, &fare.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// requiredQuery returns a non-empty query parameter.
func requiredQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", &fare.ValidationError{Field: name, Reason: "query parameter is required"}
	}
	return v, nil
}

// LocationBody is a coordinate pair on the wire. Pointers distinguish a
// missing coordinate from 0.
type LocationBody struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (b *LocationBody) location(field string) (model.Location, error) {
	if b == nil || b.Lat == nil || b.Lng == nil {
		return model.Location{}, &fare.ValidationError{Field: field, Reason: "lat and lng are required"}
	}
	return model.Location{Lat: *b.Lat, Lng: *b.Lng}, nil
}

func tripFromBody(pickup, destination *LocationBody) (model.Location, model.Location, error) {
	p, err := pickup.location("pickup")
	if err != nil {
		return model.Location{}, model.Location{}, err
	}
	d, err := destination.location("destination")
	if err != nil {
		return model.Location{}, model.Location{}, err
	}
	return p, d, nil
}
