// Package db owns the PostgreSQL pool and the embedded schema migrations
// for the rides table.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/config"
)

// connectAttempts bounds startup retries while the database container is
// still coming up.
const connectAttempts = 5

// NewPostgresPool opens the ride store pool and waits for the first
// successful ping, retrying with linear backoff. Sessions run in UTC so
// ride timestamps scan back unshifted.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 15 * time.Minute
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "ridefare"
	poolCfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		_, err = Ping(ctx, pool)
		if err == nil {
			return pool, nil
		}
		if attempt == connectAttempts {
			break
		}
		wait := time.Duration(attempt) * time.Second
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"retry":   wait.String(),
		}).Warn("postgres not ready")

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("postgres: ping failed after %d attempts: %w", connectAttempts, err)
}

// Ping checks the pool and reports the round-trip time.
func Ping(ctx context.Context, pool *pgxpool.Pool) (time.Duration, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := pool.Ping(pingCtx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
