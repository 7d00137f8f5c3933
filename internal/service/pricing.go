package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

// QuoteCache is the read-through cache in front of the fare engine.
type QuoteCache interface {
	Get(ctx context.Context, pickup, destination model.Location, hour int) (*fare.FareSet, error)
	Set(ctx context.Context, pickup, destination model.Location, hour int, fs *fare.FareSet) error
}

// ─── PricingService ─────────────────────────────────────────

// PricingService quotes fares for the HTTP layer and the ride coordinator.
//
// It owns the two ambient inputs the engine refuses to read on its own: the
// wall clock (reduced to an hour in the configured zone) and the cache.
// Cache failures degrade to direct computation.
type PricingService struct {
	engine *fare.Engine
	cache  QuoteCache
	loc    *time.Location
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewPricingService creates a pricing service. cache may be nil; loc nil
// means UTC.
func NewPricingService(engine *fare.Engine, cache QuoteCache, loc *time.Location, log logrus.FieldLogger) *PricingService {
	if loc == nil {
		loc = time.UTC
	}
	return &PricingService{
		engine: engine,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
		log:    logger.Component(log, "pricing"),
	}
}

// WithClock returns a copy of the service reading time from now.
func (s *PricingService) WithClock(now func() time.Time) *PricingService {
	cp := *s
	cp.now = now
	return &cp
}

// CurrentHour returns the surge hour (0..23) in the service's time zone.
func (s *PricingService) CurrentHour() int {
	return s.now().In(s.loc).Hour()
}

// Vehicles returns the display descriptors for every vehicle class.
func (s *PricingService) Vehicles() []fare.VehicleInfo {
	return s.engine.Vehicles()
}

// EstimateFares quotes every vehicle class for the trip at the current hour.
func (s *PricingService) EstimateFares(ctx context.Context, pickup, destination model.Location) (*fare.FareSet, error) {
	hour := s.CurrentHour()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pickup, destination, hour)
		if err != nil {
			s.log.WithError(err).Warn("quote cache read failed, computing directly")
		} else if cached != nil && cached.Complete() {
			s.log.WithField("hour", hour).Debug("quote cache hit")
			return cached, nil
		}
	}

	fs, err := s.engine.QuoteAll(pickup, destination, hour)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"distance_km": fs.Details.Car.Distance,
		"minutes":     fs.Details.Car.EstimatedTime,
		"surge":       fs.Details.Car.SurgeMultiplier,
		"car":         fs.Car,
		"moto":        fs.Moto,
		"auto":        fs.Auto,
	}).Info("fares quoted")

	if s.cache != nil {
		if err := s.cache.Set(ctx, pickup, destination, hour, fs); err != nil {
			s.log.WithError(err).Warn("quote cache write failed")
		}
	}
	return fs, nil
}

// EstimateFare quotes a single vehicle class. It reads from the same set
// EstimateFares returns, so a ride is booked at the price the rider saw.
func (s *PricingService) EstimateFare(
	ctx context.Context,
	pickup, destination model.Location,
	class fare.VehicleClass,
) (*fare.Quote, error) {
	if _, err := fare.ParseVehicleClass(string(class)); err != nil {
		return nil, err
	}
	fs, err := s.EstimateFares(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}
	return fs.Detail(class), nil
}
