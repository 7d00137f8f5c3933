// Package model contains domain models for the ride-hailing fare service.
// Ride maps to the `rides` table created by pkg/db.Migrate.
package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleCaptain UserRole = "captain"
)

// Valid reports whether r is a role a push-channel client may join as.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleCaptain
}

type RideStatus string

const (
	RidePending   RideStatus = "pending"
	RideAccepted  RideStatus = "accepted"
	RideOngoing   RideStatus = "ongoing"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

// rideTransitions lists the statuses each status may move to.
var rideTransitions = map[RideStatus][]RideStatus{
	RidePending:  {RideAccepted, RideCancelled},
	RideAccepted: {RideOngoing, RideCancelled},
	RideOngoing:  {RideCompleted},
}

// CanTransition reports whether a ride in status from may move to status to.
func CanTransition(from, to RideStatus) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Push-channel event names.
const (
	EventNewRide       = "new-ride"
	EventRideConfirmed = "ride-confirmed"
	EventRideStarted   = "ride-started"
	EventRideEnded     = "ride-ended"
	EventRideCancelled = "ride-cancelled"
)

// ─── Location ───────────────────────────────────────────────

// Location represents a WGS-84 geographic point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ─── Domain Models ──────────────────────────────────────────

// Participant identifies one end of the push channel.
type Participant struct {
	Role UserRole `json:"userType"`
	ID   int64    `json:"userId"`
}

// Ride maps to the `rides` table.
type Ride struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	CaptainID          *int64     `json:"captain_id,omitempty"`
	Pickup             Location   `json:"pickup"`
	Destination        Location   `json:"destination"`
	PickupAddress      string     `json:"pickup_address,omitempty"`
	DestinationAddress string     `json:"destination_address,omitempty"`
	VehicleClass       string     `json:"vehicle_class"`
	Fare               int64      `json:"fare"`
	DistanceKm         float64    `json:"distance_km"`
	DurationMin        int        `json:"duration_min"`
	SurgeMultiplier    float64    `json:"surge_multiplier"`
	Status             RideStatus `json:"status"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
