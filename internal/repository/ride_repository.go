package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shiva/ridefare/internal/model"
)

var (
	ErrRideNotFound = errors.New("ride not found")
	// ErrStatusConflict means the ride left the expected status before the
	// update landed (a concurrent transition won).
	ErrStatusConflict = errors.New("ride status changed concurrently")
)

// Querier is the slice of *pgxpool.Pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RideRepository persists rides in PostgreSQL.
type RideRepository struct {
	pool Querier
}

// NewRideRepository creates a new repository.
func NewRideRepository(pool Querier) *RideRepository {
	return &RideRepository{pool: pool}
}

const rideColumns = `
	id, user_id, captain_id,
	pickup_lat, pickup_lng, destination_lat, destination_lng,
	pickup_address, destination_address,
	vehicle_class, fare, distance_km, duration_min, surge_multiplier,
	status, started_at, completed_at, created_at, updated_at`

func scanRide(row pgx.Row) (*model.Ride, error) {
	r := &model.Ride{}
	err := row.Scan(
		&r.ID, &r.UserID, &r.CaptainID,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Destination.Lat, &r.Destination.Lng,
		&r.PickupAddress, &r.DestinationAddress,
		&r.VehicleClass, &r.Fare, &r.DistanceKm, &r.DurationMin, &r.SurgeMultiplier,
		&r.Status, &r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create inserts a new pending ride and returns the stored row.
func (r *RideRepository) Create(ctx context.Context, ride *model.Ride) (*model.Ride, error) {
	query := `
		INSERT INTO rides (
			user_id,
			pickup_lat, pickup_lng, destination_lat, destination_lng,
			pickup_address, destination_address,
			vehicle_class, fare, distance_km, duration_min, surge_multiplier,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending')
		RETURNING ` + rideColumns

	created, err := scanRide(r.pool.QueryRow(ctx, query,
		ride.UserID,
		ride.Pickup.Lat, ride.Pickup.Lng, ride.Destination.Lat, ride.Destination.Lng,
		ride.PickupAddress, ride.DestinationAddress,
		ride.VehicleClass, ride.Fare, ride.DistanceKm, ride.DurationMin, ride.SurgeMultiplier,
	))
	if err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	return created, nil
}

// GetByID fetches a ride. Returns ErrRideNotFound if it does not exist.
func (r *RideRepository) GetByID(ctx context.Context, id int64) (*model.Ride, error) {
	ride, err := scanRide(r.pool.QueryRow(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride %d: %w", id, err)
	}
	return ride, nil
}

// UpdateStatus moves a ride from one status to another with a
// compare-and-set on the current status. A non-nil captainID is assigned in
// the same statement; started_at / completed_at are stamped on entry to
// ongoing / completed.
//
// Returns ErrRideNotFound if the ride does not exist and ErrStatusConflict
// if it is no longer in status from.
func (r *RideRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to model.RideStatus,
	captainID *int64,
) (*model.Ride, error) {
	query := `
		UPDATE rides
		SET status       = $3::text,
		    captain_id   = COALESCE($4, captain_id),
		    started_at   = CASE WHEN $3::text = 'ongoing'   THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $3::text = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at   = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + rideColumns

	ride, err := scanRide(r.pool.QueryRow(ctx, query, id, from, to, captainID))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update ride %d %s→%s: %w", id, from, to, err)
	}

	// No row matched: tell a missing ride apart from a lost race.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}
