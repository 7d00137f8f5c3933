package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/maps"
	"github.com/shiva/ridefare/pkg/logger"
)

// MapsService is the subset of the maps provider the API exposes.
type MapsService interface {
	Geocoder
	GetDistanceTime(ctx context.Context, origin, destination string) (*maps.DistanceTime, error)
	GetSuggestions(ctx context.Context, input string) ([]maps.Suggestion, error)
}

// MapsHandler handles address lookup requests.
type MapsHandler struct {
	maps MapsService
	log  logrus.FieldLogger
}

// NewMapsHandler creates a maps handler. svc may be nil; every route then
// answers 503.
func NewMapsHandler(svc MapsService, log logrus.FieldLogger) *MapsHandler {
	return &MapsHandler{maps: svc, log: logger.Component(log, "http.maps")}
}

// Register mounts the maps routes on r.
func (h *MapsHandler) Register(r *mux.Router) {
	r.HandleFunc("/maps/get-suggestions", h.GetSuggestions).Methods(http.MethodGet)
	r.HandleFunc("/maps/get-coordinates", h.GetCoordinates).Methods(http.MethodGet)
	r.HandleFunc("/maps/get-distance-time", h.GetDistanceTime).Methods(http.MethodGet)
}

// GetSuggestions handles GET /api/v1/maps/get-suggestions?input=
func (h *MapsHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		writeError(w, h.log, errMapsUnavailable)
		return
	}
	input, err := requiredQuery(r, "input")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	suggestions, err := h.maps.GetSuggestions(r.Context(), input)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// GetCoordinates handles GET /api/v1/maps/get-coordinates?address=
func (h *MapsHandler) GetCoordinates(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		writeError(w, h.log, errMapsUnavailable)
		return
	}
	address, err := requiredQuery(r, "address")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	loc, err := h.maps.GetCoordinates(r.Context(), address)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// GetDistanceTime handles GET /api/v1/maps/get-distance-time?origin=&destination=
func (h *MapsHandler) GetDistanceTime(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		writeError(w, h.log, errMapsUnavailable)
		return
	}
	origin, err := requiredQuery(r, "origin")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	destination, err := requiredQuery(r, "destination")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	dt, err := h.maps.GetDistanceTime(r.Context(), origin, destination)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dt)
}
