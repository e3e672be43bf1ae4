// Package openmeteo implements the geocoding and forecast clients against the
// Open-Meteo public APIs. Both clients are keyless; requests carry the caller's
// context and a bounded HTTP timeout.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
	"github.com/geistdevelopment/wetter-bericht/internal/observability"
)

// GeocodeClient implements domain.GeocodeClient using the Open-Meteo
// geocoding API.
type GeocodeClient struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeocodeClient creates an Open-Meteo geocoding client.
func NewGeocodeClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *GeocodeClient {
	return &GeocodeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Search returns up to count ranked candidates for a city name, filtered to
// the given ISO country code. Results from other countries are dropped even
// when the API ranks them first.
func (c *GeocodeClient) Search(ctx context.Context, city, country string, count int) ([]domain.GeocodeCandidate, error) {
	params := url.Values{
		"name":     {city},
		"count":    {strconv.Itoa(count)},
		"language": {"en"},
		"format":   {"json"},
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.WeatherAPITiming.WithLabelValues("geocode").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open-meteo geocoding error: status %d: %s", resp.StatusCode, body)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]domain.GeocodeCandidate, 0, len(geoResp.Results))
	for _, r := range geoResp.Results {
		if country != "" && r.CountryCode != country {
			continue
		}
		candidates = append(candidates, domain.GeocodeCandidate{
			Name:        r.Name,
			Admin1:      r.Admin1,
			CountryCode: r.CountryCode,
			Lat:         r.Latitude,
			Lon:         r.Longitude,
		})
	}

	if len(candidates) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}

	c.logger.Debug("geocode search", "city", city, "returned", len(geoResp.Results), "kept", len(candidates))
	return candidates, nil
}

// Open-Meteo geocoding API response types. Latitude/longitude are pointers so
// a result omitting them is distinguishable from coordinates at zero.

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CountryCode string   `json:"country_code"`
	Admin1      string   `json:"admin1"`
}
