package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // FARE_TIMEZONE must resolve in slim containers

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Fare     FareConfig
	Maps     MapsConfig
	CORS     CORSConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// FareConfig holds fare quoting settings.
//
// Tariffs themselves are compiled in (see pkg/fare); only the ambient inputs
// to a quote are configurable here.
type FareConfig struct {
	Timezone       string         `mapstructure:"FARE_TIMEZONE"`
	Location       *time.Location `mapstructure:"-"`
	QuoteCacheTTL  time.Duration  `mapstructure:"FARE_QUOTE_CACHE_TTL"`
	CurrencySymbol string         `mapstructure:"FARE_CURRENCY_SYMBOL"`
	RemoteURL      string         `mapstructure:"FARE_REMOTE_URL"`
	RemoteTimeout  time.Duration  `mapstructure:"FARE_REMOTE_TIMEOUT"`
}

// MapsConfig holds Google Maps Platform settings. An empty APIKey disables
// the address-based endpoints.
type MapsConfig struct {
	APIKey   string `mapstructure:"MAPS_API_KEY"`
	Region   string `mapstructure:"MAPS_REGION"`
	Language string `mapstructure:"MAPS_LANGUAGE"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	AllowedSuffixes []string `mapstructure:"CORS_ALLOWED_ORIGIN_SUFFIXES"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"` // text, json
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing .env is fine; env vars injected by the runtime are used instead.
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	// ── Defaults ────────────────────────────────────────
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 4000)
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "ridefare")
	v.SetDefault("POSTGRES_PASSWORD", "ridefare_secret")
	v.SetDefault("POSTGRES_DB", "ridefare_db")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)

	v.SetDefault("FARE_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("FARE_QUOTE_CACHE_TTL", "60s")
	v.SetDefault("FARE_CURRENCY_SYMBOL", "₹")
	v.SetDefault("FARE_REMOTE_URL", "")
	v.SetDefault("FARE_REMOTE_TIMEOUT", "3s")

	v.SetDefault("MAPS_API_KEY", "")
	v.SetDefault("MAPS_REGION", "in")
	v.SetDefault("MAPS_LANGUAGE", "en")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGIN_SUFFIXES", ".netlify.app")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetInt("SERVER_PORT"),
		ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("POSTGRES_HOST"),
		Port:     v.GetInt("POSTGRES_PORT"),
		User:     v.GetString("POSTGRES_USER"),
		Password: v.GetString("POSTGRES_PASSWORD"),
		DBName:   v.GetString("POSTGRES_DB"),
		SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: v.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Fare ────────────────────────────────────────────
	cfg.Fare = FareConfig{
		Timezone:       v.GetString("FARE_TIMEZONE"),
		QuoteCacheTTL:  v.GetDuration("FARE_QUOTE_CACHE_TTL"),
		CurrencySymbol: v.GetString("FARE_CURRENCY_SYMBOL"),
		RemoteURL:      strings.TrimRight(v.GetString("FARE_REMOTE_URL"), "/"),
		RemoteTimeout:  v.GetDuration("FARE_REMOTE_TIMEOUT"),
	}
	loc, err := time.LoadLocation(cfg.Fare.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: FARE_TIMEZONE %q: %w", cfg.Fare.Timezone, err)
	}
	cfg.Fare.Location = loc

	// ── Maps ────────────────────────────────────────────
	cfg.Maps = MapsConfig{
		APIKey:   v.GetString("MAPS_API_KEY"),
		Region:   v.GetString("MAPS_REGION"),
		Language: v.GetString("MAPS_LANGUAGE"),
	}

	// ── CORS ────────────────────────────────────────────
	cfg.CORS = CORSConfig{
		AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AllowedSuffixes: splitList(v.GetString("CORS_ALLOWED_ORIGIN_SUFFIXES")),
	}

	// ── Logging ─────────────────────────────────────────
	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
