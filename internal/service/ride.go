package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/internal/repository"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

// ─── Ride Errors ───────────────────────────────────────────

var (
	ErrRideNotFound       = repository.ErrRideNotFound
	ErrInvalidTransition  = errors.New("ride cannot move to the requested status")
	ErrNotAssignedCaptain = errors.New("captain is not assigned to this ride")
)

// ─── Collaborators ─────────────────────────────────────────

// RideStore persists rides.
type RideStore interface {
	Create(ctx context.Context, ride *model.Ride) (*model.Ride, error)
	GetByID(ctx context.Context, id int64) (*model.Ride, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.RideStatus, captainID *int64) (*model.Ride, error)
}

// Notifier pushes named events to connected participants.
type Notifier interface {
	Notify(to model.Participant, event string, payload any) error
	Broadcast(role model.UserRole, event string, payload any) int
}

// FareQuoter prices one vehicle class for a trip.
type FareQuoter interface {
	EstimateFare(ctx context.Context, pickup, destination model.Location, class fare.VehicleClass) (*fare.Quote, error)
}

// ─── RideService ───────────────────────────────────────────

// CreateRideInput is what a rider submits to book a ride. The fare is
// always recomputed server-side.
type CreateRideInput struct {
	UserID             int64
	Pickup             model.Location
	Destination        model.Location
	PickupAddress      string
	DestinationAddress string
	VehicleClass       string
}

// RideService coordinates the ride lifecycle:
//
//	pending → accepted → ongoing → completed
//	pending | accepted → cancelled
//
// Each transition is a compare-and-set in the store, then a push event.
// Push failures are logged; they never undo a transition.
type RideService struct {
	store    RideStore
	pricing  FareQuoter
	notifier Notifier
	log      logrus.FieldLogger
}

// NewRideService creates a ride service.
func NewRideService(store RideStore, pricing FareQuoter, notifier Notifier, log logrus.FieldLogger) *RideService {
	return &RideService{
		store:    store,
		pricing:  pricing,
		notifier: notifier,
		log:      logger.Component(log, "ride"),
	}
}

// CreateRide quotes and stores a pending ride, then offers it to every
// connected captain.
func (s *RideService) CreateRide(ctx context.Context, in CreateRideInput) (*model.Ride, error) {
	if in.UserID <= 0 {
		return nil, &fare.ValidationError{Field: "userId", Reason: "must be a positive id"}
	}
	class, err := fare.ParseVehicleClass(in.VehicleClass)
	if err != nil {
		return nil, err
	}

	q, err := s.pricing.EstimateFare(ctx, in.Pickup, in.Destination, class)
	if err != nil {
		return nil, err
	}

	ride, err := s.store.Create(ctx, &model.Ride{
		UserID:             in.UserID,
		Pickup:             in.Pickup,
		Destination:        in.Destination,
		PickupAddress:      in.PickupAddress,
		DestinationAddress: in.DestinationAddress,
		VehicleClass:       string(class),
		Fare:               q.Total,
		DistanceKm:         q.Distance,
		DurationMin:        q.EstimatedTime,
		SurgeMultiplier:    q.SurgeMultiplier,
		Status:             model.RidePending,
	})
	if err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	n := s.notifier.Broadcast(model.RoleCaptain, model.EventNewRide, ride)
	s.log.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"user_id":  ride.UserID,
		"class":    ride.VehicleClass,
		"fare":     ride.Fare,
		"captains": n,
	}).Info("ride created")

	return ride, nil
}

// GetRide returns a ride by id.
func (s *RideService) GetRide(ctx context.Context, id int64) (*model.Ride, error) {
	return s.store.GetByID(ctx, id)
}

// ConfirmRide assigns a captain to a pending ride and tells the rider.
func (s *RideService) ConfirmRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error) {
	if captainID <= 0 {
		return nil, &fare.ValidationError{Field: "captainId", Reason: "must be a positive id"}
	}
	ride, err := s.transition(ctx, rideID, model.RideAccepted, captainID, false)
	if err != nil {
		return nil, err
	}
	s.notifyUser(ride, model.EventRideConfirmed)
	return ride, nil
}

// StartRide begins the trip. Only the assigned captain may start it.
func (s *RideService) StartRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error) {
	ride, err := s.transition(ctx, rideID, model.RideOngoing, captainID, true)
	if err != nil {
		return nil, err
	}
	s.notifyUser(ride, model.EventRideStarted)
	return ride, nil
}

// EndRide completes the trip. Only the assigned captain may end it.
func (s *RideService) EndRide(ctx context.Context, rideID, captainID int64) (*model.Ride, error) {
	ride, err := s.transition(ctx, rideID, model.RideCompleted, captainID, true)
	if err != nil {
		return nil, err
	}
	s.notifyUser(ride, model.EventRideEnded)
	return ride, nil
}

// CancelRide cancels a pending or accepted ride and tells both parties.
func (s *RideService) CancelRide(ctx context.Context, rideID int64) (*model.Ride, error) {
	ride, err := s.transition(ctx, rideID, model.RideCancelled, 0, false)
	if err != nil {
		return nil, err
	}
	s.notifyUser(ride, model.EventRideCancelled)
	if ride.CaptainID != nil {
		s.notify(model.Participant{Role: model.RoleCaptain, ID: *ride.CaptainID}, ride, model.EventRideCancelled)
	}
	return ride, nil
}

// transition validates and applies a status change. A positive captainID is
// assigned on acceptance; requireCaptain checks it against the assignee.
func (s *RideService) transition(
	ctx context.Context,
	rideID int64,
	to model.RideStatus,
	captainID int64,
	requireCaptain bool,
) (*model.Ride, error) {
	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(ride.Status, to) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, ride.Status, to)
	}
	if requireCaptain && (ride.CaptainID == nil || *ride.CaptainID != captainID) {
		return nil, ErrNotAssignedCaptain
	}

	var assign *int64
	if to == model.RideAccepted {
		assign = &captainID
	}

	updated, err := s.store.UpdateStatus(ctx, rideID, ride.Status, to, assign)
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: ride %d changed concurrently", ErrInvalidTransition, rideID)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": rideID,
		"from":    ride.Status,
		"to":      to,
	}).Info("ride status changed")
	return updated, nil
}

func (s *RideService) notifyUser(ride *model.Ride, event string) {
	s.notify(model.Participant{Role: model.RoleUser, ID: ride.UserID}, ride, event)
}

func (s *RideService) notify(to model.Participant, ride *model.Ride, event string) {
	if err := s.notifier.Notify(to, event, ride); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"ride_id": ride.ID,
			"event":   event,
			"to":      fmt.Sprintf("%s:%d", to.Role, to.ID),
		}).Warn("push notification not delivered")
	}
}
