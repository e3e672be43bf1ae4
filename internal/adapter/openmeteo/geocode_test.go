package openmeteo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geistdevelopment/wetter-bericht/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func TestGeocodeClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Charlotte", r.URL.Query().Get("name"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		resp := geocodeResponse{Results: []geocodeResult{
			{Name: "Charlotte", Latitude: ptr(35.2271), Longitude: ptr(-80.8431), CountryCode: "US", Admin1: "North Carolina"},
			{Name: "Charlotte", Latitude: ptr(44.3095), Longitude: ptr(-73.2610), CountryCode: "US", Admin1: "Vermont"},
		}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 5*time.Second, testMetrics(), testLogger())
	candidates, err := c.Search(context.Background(), "Charlotte", "US", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "North Carolina", candidates[0].Admin1)
	assert.Equal(t, 35.2271, *candidates[0].Lat)
	assert.Equal(t, -80.8431, *candidates[0].Lon)
}

func TestGeocodeClient_Search_FiltersCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := geocodeResponse{Results: []geocodeResult{
			{Name: "Paris", Latitude: ptr(48.8566), Longitude: ptr(2.3522), CountryCode: "FR", Admin1: "Île-de-France"},
			{Name: "Paris", Latitude: ptr(33.6609), Longitude: ptr(-95.5555), CountryCode: "US", Admin1: "Texas"},
		}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 5*time.Second, testMetrics(), testLogger())
	candidates, err := c.Search(context.Background(), "Paris", "US", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Texas", candidates[0].Admin1)
}

func TestGeocodeClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The API omits "results" entirely when nothing matches.
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 5*time.Second, testMetrics(), testLogger())
	candidates, err := c.Search(context.Background(), "Nowhereville", "US", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestGeocodeClient_Search_MissingCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"results":[{"name":"Ghost Town","country_code":"US","admin1":"Nevada"}]}`))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 5*time.Second, testMetrics(), testLogger())
	candidates, err := c.Search(context.Background(), "Ghost Town", "US", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Nil(t, candidates[0].Lat)
	assert.Nil(t, candidates[0].Lon)
}

func TestGeocodeClient_Search_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":true,"reason":"overloaded"}`))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 5*time.Second, testMetrics(), testLogger())
	_, err := c.Search(context.Background(), "Charlotte", "US", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGeocodeClient_Search_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, 50*time.Millisecond, testMetrics(), testLogger())
	_, err := c.Search(context.Background(), "Charlotte", "US", 5)
	require.Error(t, err)
}
