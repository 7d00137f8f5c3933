package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

// FareService quotes every vehicle class for a trip.
type FareService interface {
	EstimateFares(ctx context.Context, pickup, destination model.Location) (*fare.FareSet, error)
	Vehicles() []fare.VehicleInfo
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	GetCoordinates(ctx context.Context, address string) (model.Location, error)
}

// FareRequest is the JSON body for POST /api/v1/fare/estimate.
type FareRequest struct {
	Pickup      *LocationBody `json:"pickup"`
	Destination *LocationBody `json:"destination"`
}

// PricingHandler handles fare estimation HTTP requests.
type PricingHandler struct {
	fares FareService
	geo   Geocoder
	log   logrus.FieldLogger
}

// NewPricingHandler creates a new pricing handler. geo may be nil, in which
// case the address-based endpoint answers 503.
func NewPricingHandler(fares FareService, geo Geocoder, log logrus.FieldLogger) *PricingHandler {
	return &PricingHandler{fares: fares, geo: geo, log: logger.Component(log, "http.pricing")}
}

// Register mounts the pricing routes on r.
func (h *PricingHandler) Register(r *mux.Router) {
	r.HandleFunc("/fare/estimate", h.EstimateFare).Methods(http.MethodPost)
	r.HandleFunc("/rides/get-fare", h.GetFare).Methods(http.MethodGet)
	r.HandleFunc("/vehicles", h.Vehicles).Methods(http.MethodGet)
}

// EstimateFare handles POST /api/v1/fare/estimate
//
// Request body:
//
//	{
//	  "pickup":      {"lat": 25.4184, "lng": 86.1274},
//	  "destination": {"lat": 25.5941, "lng": 85.1376}
//	}
//
// Response: FareSet with a total and a breakdown per vehicle class.
func (h *PricingHandler) EstimateFare(w http.ResponseWriter, r *http.Request) {
	var req FareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pickup, destination, err := tripFromBody(req.Pickup, req.Destination)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	fs, err := h.fares.EstimateFares(r.Context(), pickup, destination)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// GetFare handles GET /api/v1/rides/get-fare?pickup=<address>&destination=<address>
//
// Both addresses are geocoded, then quoted like EstimateFare.
func (h *PricingHandler) GetFare(w http.ResponseWriter, r *http.Request) {
	if h.geo == nil {
		writeError(w, h.log, errMapsUnavailable)
		return
	}
	pickupAddr, err := requiredQuery(r, "pickup")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	destAddr, err := requiredQuery(r, "destination")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	pickup, err := h.geo.GetCoordinates(r.Context(), pickupAddr)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	destination, err := h.geo.GetCoordinates(r.Context(), destAddr)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	fs, err := h.fares.EstimateFares(r.Context(), pickup, destination)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// Vehicles handles GET /api/v1/vehicles
func (h *PricingHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.fares.Vehicles())
}
