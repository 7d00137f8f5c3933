package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/internal/service"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

// RideCoordinator drives the ride lifecycle.
type RideCoordinator interface {
	CreateRide(ctx context.Context, in service.CreateRideInput) (*model.Ride, error)
	GetRide(ctx context.Context, id int64) (*model.Ride, error)
	ConfirmRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error)
	StartRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error)
	EndRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error)
	CancelRide(ctx context.Context, rideID int64) (*model.Ride, error)
}

// ─── Request/Response DTOs ──────────────────────────────────

// CreateRideBody is the JSON body for POST /api/v1/rides.
type CreateRideBody struct {
	UserID             int64         `json:"user_id"`
	Pickup             *LocationBody `json:"pickup"`
	Destination        *LocationBody `json:"destination"`
	PickupAddress      string        `json:"pickup_address"`
	DestinationAddress string        `json:"destination_address"`
	VehicleType        string        `json:"vehicle_type"`
}

// CaptainActionBody is the JSON body for confirm, start and end.
type CaptainActionBody struct {
	CaptainID int64 `json:"captain_id"`
}

// ─── RideHandler ────────────────────────────────────────────

// RideHandler handles ride booking and lifecycle transitions.
type RideHandler struct {
	rides RideCoordinator
	log   logrus.FieldLogger
}

// NewRideHandler creates a new ride handler.
func NewRideHandler(rides RideCoordinator, log logrus.FieldLogger) *RideHandler {
	return &RideHandler{rides: rides, log: logger.Component(log, "http.ride")}
}

// Register mounts the ride routes on r.
func (h *RideHandler) Register(r *mux.Router) {
	r.HandleFunc("/rides", h.CreateRide).Methods(http.MethodPost)
	r.HandleFunc("/rides/{id:[0-9]+}", h.GetRide).Methods(http.MethodGet)
	r.HandleFunc("/rides/{id:[0-9]+}/confirm", h.captainAction(h.rides.ConfirmRide)).Methods(http.MethodPost)
	r.HandleFunc("/rides/{id:[0-9]+}/start", h.captainAction(h.rides.StartRide)).Methods(http.MethodPost)
	r.HandleFunc("/rides/{id:[0-9]+}/end", h.captainAction(h.rides.EndRide)).Methods(http.MethodPost)
	r.HandleFunc("/rides/{id:[0-9]+}/cancel", h.CancelRide).Methods(http.MethodPost)
}

// CreateRide handles POST /api/v1/rides
//
// Books a pending ride. The fare is quoted server-side.
//
//	Request body:
//	{
//	  "user_id": 7,
//	  "pickup": {"lat": 25.4184, "lng": 86.1274},
//	  "destination": {"lat": 25.5941, "lng": 85.1376},
//	  "pickup_address": "Begusarai", "destination_address": "Patna",
//	  "vehicle_type": "car"
//	}
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	var body CreateRideBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	pickup, destination, err := tripFromBody(body.Pickup, body.Destination)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	ride, err := h.rides.CreateRide(r.Context(), service.CreateRideInput{
		UserID:             body.UserID,
		Pickup:             pickup,
		Destination:        destination,
		PickupAddress:      body.PickupAddress,
		DestinationAddress: body.DestinationAddress,
		VehicleClass:       body.VehicleType,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

// GetRide handles GET /api/v1/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	ride, err := h.rides.GetRide(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// CancelRide handles POST /api/v1/rides/{id}/cancel
func (h *RideHandler) CancelRide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	ride, err := h.rides.CancelRide(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// captainAction adapts a captain-driven transition to a handler reading
// {"captain_id": N} from the body.
func (h *RideHandler) captainAction(
	apply func(ctx context.Context, rideID, captainID int64) (*model.Ride, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		var body CaptainActionBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, h.log, err)
			return
		}
		if body.CaptainID <= 0 {
			writeError(w, h.log, &fare.ValidationError{Field: "captain_id", Reason: "must be a positive id"})
			return
		}

		ride, err := apply(r.Context(), id, body.CaptainID)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, ride)
	}
}
