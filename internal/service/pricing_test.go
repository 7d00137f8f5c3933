package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/fare"
)

var (
	begusarai = model.Location{Lat: 25.4184, Lng: 86.1274}
	patna     = model.Location{Lat: 25.5941, Lng: 85.1376}
	ist       = time.FixedZone("IST", 5*3600+1800)
)

// fakeQuoteCache is an in-memory QuoteCache.
type fakeQuoteCache struct {
	sets   map[string]*fare.FareSet
	getErr error
	setErr error
	gets   int
	puts   int
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{sets: map[string]*fare.FareSet{}}
}

func cacheKey(p, d model.Location, hour int) string {
	return fmt.Sprintf("%v:%v:%d", p, d, hour)
}

func (c *fakeQuoteCache) Get(_ context.Context, p, d model.Location, hour int) (*fare.FareSet, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.sets[cacheKey(p, d, hour)], nil
}

func (c *fakeQuoteCache) Set(_ context.Context, p, d model.Location, hour int, fs *fare.FareSet) error {
	c.puts++
	if c.setErr != nil {
		return c.setErr
	}
	c.sets[cacheKey(p, d, hour)] = fs
	return nil
}

// clockAt returns a clock fixed at the given IST hour.
func clockAt(hour int) func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 18, hour, 15, 0, 0, ist) }
}

func newTestPricing(cache QuoteCache, hour int) *PricingService {
	log, _ := test.NewNullLogger()
	return NewPricingService(fare.NewDefaultEngine(), cache, ist, log).WithClock(clockAt(hour))
}

func TestPricingService_CurrentHourUsesZone(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewPricingService(fare.NewDefaultEngine(), nil, ist, log).WithClock(func() time.Time {
		// 03:40 UTC is 09:10 IST.
		return time.Date(2026, 10, 18, 3, 40, 0, 0, time.UTC)
	})
	if got := svc.CurrentHour(); got != 9 {
		t.Errorf("CurrentHour() = %d, want 9", got)
	}
}

func TestPricingService_EstimateFares(t *testing.T) {
	tests := []struct {
		name string
		hour int
		car  int64
		moto int64
		auto int64
	}{
		{"off-peak", 14, 1741, 1200, 1479},
		{"high surge", 9, 3134, 2160, 2662},
		{"moderate surge", 11, 2263, 1560, 1923},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestPricing(nil, tt.hour)
			fs, err := svc.EstimateFares(context.Background(), begusarai, patna)
			if err != nil {
				t.Fatalf("EstimateFares() error = %v", err)
			}
			if fs.Car != tt.car || fs.Moto != tt.moto || fs.Auto != tt.auto {
				t.Errorf("EstimateFares() = {%d, %d, %d}, want {%d, %d, %d}",
					fs.Car, fs.Moto, fs.Auto, tt.car, tt.moto, tt.auto)
			}
		})
	}
}

func TestPricingService_CacheReadThrough(t *testing.T) {
	cache := newFakeQuoteCache()
	svc := newTestPricing(cache, 14)
	ctx := context.Background()

	first, err := svc.EstimateFares(ctx, begusarai, patna)
	if err != nil {
		t.Fatalf("EstimateFares() error = %v", err)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}

	second, err := svc.EstimateFares(ctx, begusarai, patna)
	if err != nil {
		t.Fatalf("EstimateFares() error = %v", err)
	}
	if second != first {
		t.Error("second call did not come from the cache")
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d after hit, want 1", cache.puts)
	}

	// A different hour is a different key.
	later := svc.WithClock(clockAt(9))
	surged, err := later.EstimateFares(ctx, begusarai, patna)
	if err != nil {
		t.Fatalf("EstimateFares() error = %v", err)
	}
	if surged.Car == first.Car {
		t.Error("surge hour served the off-peak cached quote")
	}
}

func TestPricingService_CacheFailureDegrades(t *testing.T) {
	cache := newFakeQuoteCache()
	cache.getErr = errors.New("redis: connection refused")
	cache.setErr = errors.New("redis: connection refused")

	log, hook := test.NewNullLogger()
	svc := NewPricingService(fare.NewDefaultEngine(), cache, ist, log).WithClock(clockAt(14))

	fs, err := svc.EstimateFares(context.Background(), begusarai, patna)
	if err != nil {
		t.Fatalf("EstimateFares() error = %v, want degraded success", err)
	}
	if fs.Car != 1741 {
		t.Errorf("Car = %d, want 1741", fs.Car)
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("warnings logged = %d, want 2 (read + write)", warnings)
	}
}

func TestPricingService_EstimateFare(t *testing.T) {
	svc := newTestPricing(nil, 14)

	q, err := svc.EstimateFare(context.Background(), begusarai, patna, fare.ClassAuto)
	if err != nil {
		t.Fatalf("EstimateFare() error = %v", err)
	}
	if q.VehicleClass != fare.ClassAuto || q.Total != 1479 {
		t.Errorf("EstimateFare() = %s %d, want auto 1479", q.VehicleClass, q.Total)
	}

	_, err = svc.EstimateFare(context.Background(), begusarai, patna, fare.VehicleClass("bus"))
	if !errors.Is(err, fare.ErrValidation) {
		t.Errorf("EstimateFare(bus) error = %v, want ErrValidation", err)
	}
}

func TestPricingService_InvalidCoordinates(t *testing.T) {
	svc := newTestPricing(newFakeQuoteCache(), 14)

	_, err := svc.EstimateFares(context.Background(), model.Location{Lat: 91, Lng: 0}, patna)
	if !errors.Is(err, fare.ErrValidation) {
		t.Errorf("EstimateFares() error = %v, want ErrValidation", err)
	}
}
