package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "wetter-bericht-subscriptions"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DYNAMO_TABLE_NAME", testTable)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, StorageDynamo, cfg.StorageBackend)
	assert.Equal(t, testTable, cfg.DynamoTable)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "weather@geistdevelopment.com", cfg.SenderAddress)
	assert.Equal(t, "Wetter Bericht – Daily Forecast", cfg.ReplySubject)
	assert.True(t, cfg.DigestEnabled)
	assert.Equal(t, "0 12 * * *", cfg.DigestCron)
	assert.Equal(t, "https://geocoding-api.open-meteo.com/v1/search", cfg.GeocodeBaseURL)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.ForecastBaseURL)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SENDER_ADDRESS", "noreply@example.com")
	t.Setenv("DIGEST_ENABLED", "false")
	t.Setenv("WEATHER_TIMEOUT", "5s")
	t.Setenv("GEOCODE_BASE_URL", "http://localhost:9999/v1/search")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "noreply@example.com", cfg.SenderAddress)
	assert.False(t, cfg.DigestEnabled)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, "http://localhost:9999/v1/search", cfg.GeocodeBaseURL)
}

func TestLoad_MemoryBackendNeedsNoTable(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DynamoTable)
}

func TestLoad_DynamoBackendRequiresTable(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "dynamo")
	t.Setenv("DYNAMO_TABLE_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DYNAMO_TABLE_NAME")
}

func TestLoad_InvalidStorageBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("DYNAMO_TABLE_NAME", testTable)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
	assert.Contains(t, err.Error(), `"not-a-duration"`)
	assert.Contains(t, err.Error(), "time: invalid duration")
}

func TestLoad_NegativeWeatherTimeout(t *testing.T) {
	t.Setenv("DYNAMO_TABLE_NAME", testTable)
	t.Setenv("WEATHER_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_TIMEOUT")
	assert.Contains(t, err.Error(), "must be positive")
}
