package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/config"
	"github.com/shiva/ridefare/internal/handler"
	"github.com/shiva/ridefare/internal/maps"
	"github.com/shiva/ridefare/internal/middleware"
	"github.com/shiva/ridefare/internal/realtime"
	"github.com/shiva/ridefare/internal/repository"
	"github.com/shiva/ridefare/internal/service"
	"github.com/shiva/ridefare/pkg/cache"
	"github.com/shiva/ridefare/pkg/db"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := logger.New(cfg.Log)

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()

	applied, err := db.Migrate(ctx, pgPool)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.WithField("applied", applied).Info("PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Redis connected")

	// ── Fare engine ─────────────────────────────────────
	tariffs := fare.DefaultTariffs()
	tariffs.CurrencySymbol = cfg.Fare.CurrencySymbol
	engine, err := fare.NewEngine(tariffs)
	if err != nil {
		log.Fatalf("invalid tariffs: %v", err)
	}

	// ── Maps (optional) ─────────────────────────────────
	var mapsSvc handler.MapsService
	if svc, err := maps.New(cfg.Maps); err != nil {
		log.WithError(err).Warn("address lookup disabled")
	} else {
		mapsSvc = svc
	}

	// ── Initialize layers ───────────────────────────────
	origins := middleware.OriginPolicy{Origins: cfg.CORS.AllowedOrigins, Suffixes: cfg.CORS.AllowedSuffixes}
	hub := realtime.NewHub(origins.CheckOrigin, log)

	quoteCache := repository.NewQuoteCache(redisClient, cfg.Fare.QuoteCacheTTL)
	if n, err := quoteCache.Purge(ctx); err != nil {
		log.WithError(err).Warn("quote cache purge failed")
	} else {
		log.WithField("keys", n).Info("quote cache purged")
	}
	rideRepo := repository.NewRideRepository(pgPool)

	pricingSvc := service.NewPricingService(engine, quoteCache, cfg.Fare.Location, log)
	rideSvc := service.NewRideService(rideRepo, pricingSvc, hub, log)

	var geocoder handler.Geocoder
	if mapsSvc != nil {
		geocoder = mapsSvc
	}
	pricingHandler := handler.NewPricingHandler(pricingSvc, geocoder, log)
	rideHandler := handler.NewRideHandler(rideSvc, log)
	mapsHandler := handler.NewMapsHandler(mapsSvc, log)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()
	router.Use(middleware.Recoverer(log), middleware.RequestLogger(log))

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)
	router.HandleFunc("/ws", hub.ServeWS).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	pricingHandler.Register(api)
	rideHandler.Register(api)
	mapsHandler.Register(api)

	// CORS wraps the router so preflight requests never reach route matching.
	root := middleware.CORS(origins)(router)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Server.ServerAddr(),
			"timezone": cfg.Fare.Timezone,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Info("server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PG and Redis connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		check := func(name string, ping func() (time.Duration, error)) {
			latency, err := ping()
			if err != nil {
				resp.Status = "degraded"
				resp.Services[name] = "unhealthy: " + err.Error()
				return
			}
			resp.Services[name] = "healthy (" + latency.Round(10*time.Microsecond).String() + ")"
		}
		check("postgres", func() (time.Duration, error) { return db.Ping(r.Context(), pgPool) })
		check("redis", func() (time.Duration, error) { return cache.Ping(r.Context(), redisClient) })

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
