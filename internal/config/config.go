package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	StorageDynamo = "dynamo"
	StorageMemory = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Storage.
	StorageBackend string // "dynamo" or "memory"
	DynamoTable    string
	AWSRegion      string
	DynamoEndpoint string // non-empty for dynamodb-local

	// Outbound mail.
	SenderAddress string
	ReplySubject  string

	// Scheduled digest.
	DigestEnabled bool
	DigestCron    string // standard 5-field cron expression, UTC

	// Open-Meteo endpoints.
	GeocodeBaseURL  string
	ForecastBaseURL string
	WeatherTimeout  time.Duration
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StorageBackend: envOrDefault("STORAGE_BACKEND", StorageDynamo),
		DynamoTable:    os.Getenv("DYNAMO_TABLE_NAME"),
		AWSRegion:      envOrDefault("AWS_REGION", "us-east-1"),
		DynamoEndpoint: os.Getenv("DYNAMO_ENDPOINT"),

		SenderAddress: envOrDefault("SENDER_ADDRESS", "weather@geistdevelopment.com"),
		ReplySubject:  envOrDefault("REPLY_SUBJECT", "Wetter Bericht – Daily Forecast"),

		DigestEnabled: parseBool("DIGEST_ENABLED", true),
		DigestCron:    envOrDefault("DIGEST_CRON", "0 12 * * *"),

		GeocodeBaseURL:  envOrDefault("GEOCODE_BASE_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		ForecastBaseURL: envOrDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:  weatherTimeout,
	}

	if cfg.StorageBackend != StorageDynamo && cfg.StorageBackend != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: must be %q or %q", cfg.StorageBackend, StorageDynamo, StorageMemory)
	}
	if cfg.StorageBackend == StorageDynamo && cfg.DynamoTable == "" {
		return nil, errors.New("DYNAMO_TABLE_NAME is required with the dynamo storage backend")
	}
	if cfg.SenderAddress == "" {
		return nil, errors.New("SENDER_ADDRESS is required")
	}
	if cfg.DigestEnabled && cfg.DigestCron == "" {
		return nil, errors.New("DIGEST_CRON is required when DIGEST_ENABLED is true")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
