package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// forecastDays caps how many daily entries a normalized forecast carries.
const forecastDays = 7

// GeoPoint is a WGS-84 latitude/longitude coordinate pair.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// DailySeries holds the parallel per-day series a forecast provider returns
// for one location: ISO dates, high/low temperatures, and WMO weather codes.
type DailySeries struct {
	Dates []string
	Highs []float64
	Lows  []float64
	Codes []int
}

// ForecastProvider is the external weather API: one coordinate pair per
// location, a DailySeries per location back, batch responses in request order.
type ForecastProvider interface {
	FetchDaily(ctx context.Context, point GeoPoint) (DailySeries, error)
	FetchDailyBatch(ctx context.Context, points []GeoPoint) ([]DailySeries, error)
}

// ForecastDay is one normalized day of a city's forecast.
type ForecastDay struct {
	Date        string
	High        float64
	Low         float64
	Code        int
	Label       string // "Today", "Tomorrow", or the weekday name
	Description string
}

// CityForecast pairs a subscribed city with its normalized forecast.
// A nil Forecast with Failed set marks a city whose batch series could not be
// normalized; an empty non-nil Forecast marks a city whose individual fetch
// failed during fallback. Both render as unavailable rather than failing the
// whole payload.
type CityForecast struct {
	City     string
	State    string
	Forecast []ForecastDay
	Failed   bool
}

// DayLabel derives the display label for the day at the given index.
// Index 0 is "Today" and index 1 is "Tomorrow" regardless of the date; later
// indexes use the weekday name of the date itself.
func DayLabel(date string, index int) (string, error) {
	switch index {
	case 0:
		return "Today", nil
	case 1:
		return "Tomorrow", nil
	}

	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("day label for %q: %w", date, err)
	}
	return t.Weekday().String(), nil
}

// NormalizeDailyForecast converts a provider's parallel series into at most
// seven ForecastDay entries with labels and weather-code descriptions.
// It fails when the series is ragged (highs, lows, or codes shorter than the
// truncated date range) or a date needed for a weekday label is malformed.
func NormalizeDailyForecast(series DailySeries) ([]ForecastDay, error) {
	n := len(series.Dates)
	if n > forecastDays {
		n = forecastDays
	}
	if len(series.Highs) < n || len(series.Lows) < n || len(series.Codes) < n {
		return nil, fmt.Errorf("daily series length mismatch: %d dates, %d highs, %d lows, %d codes",
			len(series.Dates), len(series.Highs), len(series.Lows), len(series.Codes))
	}

	forecast := make([]ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		label, err := DayLabel(series.Dates[i], i)
		if err != nil {
			return nil, err
		}
		forecast = append(forecast, ForecastDay{
			Date:        series.Dates[i],
			High:        series.Highs[i],
			Low:         series.Lows[i],
			Code:        series.Codes[i],
			Label:       label,
			Description: DescribeWeatherCode(series.Codes[i]),
		})
	}

	return forecast, nil
}

// BuildForecastPayload turns a subscriber's locations into per-city forecasts.
//
// It attempts one batched fetch carrying every city's coordinates. If the
// batch channel itself fails (transport error, response shape or count
// mismatch), it falls back to sequential per-city fetches, where an individual
// failure yields an empty forecast for that city only. Within a successful
// batch, a city whose series fails to normalize gets the explicit failed
// marker while its siblings are returned normally.
func BuildForecastPayload(ctx context.Context, cities []Subscription, provider ForecastProvider, logger *slog.Logger) []CityForecast {
	if len(cities) == 0 {
		return nil
	}

	points := make([]GeoPoint, len(cities))
	for i, c := range cities {
		points[i] = GeoPoint{Lat: c.Lat, Lon: c.Lon}
	}

	batch, err := provider.FetchDailyBatch(ctx, points)
	if err == nil && len(batch) != len(cities) {
		err = fmt.Errorf("batch returned %d series for %d cities", len(batch), len(cities))
	}
	if err != nil {
		logger.Warn("batched forecast fetch failed, falling back to per-city fetches", "cities", len(cities), "error", err)
		return buildPayloadPerCity(ctx, cities, provider, logger)
	}

	payload := make([]CityForecast, 0, len(cities))
	for i, city := range cities {
		forecast, err := NormalizeDailyForecast(batch[i])
		if err != nil {
			logger.Warn("failed to normalize forecast", "city", city.City, "state", city.State, "error", err)
			payload = append(payload, CityForecast{City: city.City, State: city.State, Failed: true})
			continue
		}
		payload = append(payload, CityForecast{City: city.City, State: city.State, Forecast: forecast})
	}

	return payload
}

// buildPayloadPerCity is the fallback path: one blocking single-location fetch
// per city, in list order. Per-city failures are swallowed into an empty
// forecast so one bad city cannot abort the payload.
func buildPayloadPerCity(ctx context.Context, cities []Subscription, provider ForecastProvider, logger *slog.Logger) []CityForecast {
	payload := make([]CityForecast, 0, len(cities))

	for _, city := range cities {
		series, err := provider.FetchDaily(ctx, GeoPoint{Lat: city.Lat, Lon: city.Lon})
		if err != nil {
			logger.Warn("per-city forecast fetch failed", "city", city.City, "state", city.State, "error", err)
			payload = append(payload, CityForecast{City: city.City, State: city.State, Forecast: []ForecastDay{}})
			continue
		}

		forecast, err := NormalizeDailyForecast(series)
		if err != nil {
			logger.Warn("failed to normalize forecast", "city", city.City, "state", city.State, "error", err)
			payload = append(payload, CityForecast{City: city.City, State: city.State, Forecast: []ForecastDay{}})
			continue
		}

		payload = append(payload, CityForecast{City: city.City, State: city.State, Forecast: forecast})
	}

	return payload
}
