package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/cache"
	"github.com/shiva/ridefare/pkg/fare"
)

const quoteKeyPrefix = "fare:quote:v1:"

// QuoteCache keeps recently computed fare sets in Redis. A quote depends only
// on the coordinates and the surge hour, so the key is exactly those inputs
// and a hit is identical to a fresh computation.
type QuoteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewQuoteCache creates a quote cache; ttl <= 0 disables writes.
func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{redis: client, ttl: ttl}
}

// QuoteKey returns the cache key for a pickup/destination pair at an hour.
func QuoteKey(pickup, destination model.Location, hour int) string {
	return fmt.Sprintf("%s%s,%s:%s,%s:%02d", quoteKeyPrefix,
		formatCoord(pickup.Lat), formatCoord(pickup.Lng),
		formatCoord(destination.Lat), formatCoord(destination.Lng),
		hour)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Get returns the cached fare set, or (nil, nil) on a miss.
func (c *QuoteCache) Get(ctx context.Context, pickup, destination model.Location, hour int) (*fare.FareSet, error) {
	raw, err := c.redis.Get(ctx, QuoteKey(pickup, destination, hour)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("quote cache get: %w", err)
	}

	var fs fare.FareSet
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("quote cache decode: %w", err)
	}
	return &fs, nil
}

// Set stores a fare set for the cache TTL.
func (c *QuoteCache) Set(ctx context.Context, pickup, destination model.Location, hour int, fs *fare.FareSet) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("quote cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, QuoteKey(pickup, destination, hour), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("quote cache set: %w", err)
	}
	return nil
}

// Purge drops every cached quote. Run at startup so breakdowns rendered with
// a previous tariff table or currency symbol are not served.
func (c *QuoteCache) Purge(ctx context.Context) (int, error) {
	return cache.DeletePrefix(ctx, c.redis, quoteKeyPrefix)
}
