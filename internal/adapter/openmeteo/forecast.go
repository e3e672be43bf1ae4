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
	"strings"
	"time"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
	"github.com/geistdevelopment/wetter-bericht/internal/observability"
)

// ForecastClient implements domain.ForecastProvider using the Open-Meteo
// forecast API.
type ForecastClient struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewForecastClient creates an Open-Meteo forecast client.
func NewForecastClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *ForecastClient {
	return &ForecastClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchDaily returns the daily series for one location.
func (c *ForecastClient) FetchDaily(ctx context.Context, point domain.GeoPoint) (domain.DailySeries, error) {
	body, err := c.doRequest(ctx, []domain.GeoPoint{point}, "single")
	if err != nil {
		return domain.DailySeries{}, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.ForecastFetches.WithLabelValues("single", "error").Inc()
		return domain.DailySeries{}, fmt.Errorf("decode forecast response: %w", err)
	}

	c.metrics.ForecastFetches.WithLabelValues("single", "success").Inc()
	return resp.series(), nil
}

// FetchDailyBatch returns one daily series per location from a single request
// carrying comma-joined coordinate lists. The API returns a JSON array only
// for multi-location requests; a single-location batch decodes as an object
// and therefore fails here, which callers handle by falling back to FetchDaily.
func (c *ForecastClient) FetchDailyBatch(ctx context.Context, points []domain.GeoPoint) ([]domain.DailySeries, error) {
	body, err := c.doRequest(ctx, points, "batch")
	if err != nil {
		return nil, err
	}

	var resps []forecastResponse
	if err := json.Unmarshal(body, &resps); err != nil {
		c.metrics.ForecastFetches.WithLabelValues("batch", "error").Inc()
		return nil, fmt.Errorf("decode batch forecast response: %w", err)
	}

	series := make([]domain.DailySeries, len(resps))
	for i, r := range resps {
		series[i] = r.series()
	}

	c.metrics.ForecastFetches.WithLabelValues("batch", "success").Inc()
	return series, nil
}

func (c *ForecastClient) doRequest(ctx context.Context, points []domain.GeoPoint, mode string) ([]byte, error) {
	lats := make([]string, len(points))
	lons := make([]string, len(points))
	for i, p := range points {
		lats[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lons[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	}

	params := url.Values{
		"latitude":           {strings.Join(lats, ",")},
		"longitude":          {strings.Join(lons, ",")},
		"daily":              {"temperature_2m_max,temperature_2m_min,weathercode"},
		"temperature_unit":   {"fahrenheit"},
		"windspeed_unit":     {"mph"},
		"precipitation_unit": {"inch"},
		"timezone":           {"auto"},
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ForecastFetches.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("%s forecast request: %w", mode, err)
	}
	defer resp.Body.Close()
	c.metrics.WeatherAPITiming.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ForecastFetches.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("read forecast response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.ForecastFetches.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("open-meteo forecast error: status %d: %s", resp.StatusCode, body)
	}

	c.logger.Debug("forecast fetched", "mode", mode, "locations", len(points))
	return body, nil
}

// Open-Meteo forecast API response types.

type forecastResponse struct {
	Daily dailyBlock `json:"daily"`
}

type dailyBlock struct {
	Time           []string  `json:"time"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
	WeatherCode    []int     `json:"weathercode"`
}

func (r forecastResponse) series() domain.DailySeries {
	return domain.DailySeries{
		Dates: r.Daily.Time,
		Highs: r.Daily.TemperatureMax,
		Lows:  r.Daily.TemperatureMin,
		Codes: r.Daily.WeatherCode,
	}
}
