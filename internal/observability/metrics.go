package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	InboundMessages   *prometheus.CounterVec // labels: outcome={processed,rejected}
	CommandsExecuted  *prometheus.CounterVec // labels: verb={ADD,REMOVE,LIST}, outcome={success,error}
	RepliesSent       prometheus.Counter
	RepliesSuppressed prometheus.Counter

	// External call metrics.
	GeocodeRequests  *prometheus.CounterVec   // labels: outcome={success,error,empty}
	ForecastFetches  *prometheus.CounterVec   // labels: mode={batch,single}, outcome={success,error}
	WeatherAPITiming *prometheus.HistogramVec // labels: mode={batch,single,geocode}

	// Digest job metrics.
	DigestRuns     prometheus.Counter
	DigestDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.InboundMessages,
		m.CommandsExecuted,
		m.RepliesSent,
		m.RepliesSuppressed,
		m.GeocodeRequests,
		m.ForecastFetches,
		m.WeatherAPITiming,
		m.DigestRuns,
		m.DigestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		InboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "inbound_messages_total",
			Help:      "Inbound email notifications by outcome.",
		}, []string{"outcome"}),
		CommandsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "commands_executed_total",
			Help:      "Subscription commands executed by verb and outcome.",
		}, []string{"verb", "outcome"}),
		RepliesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "replies_sent_total",
			Help:      "Reply emails sent to subscribers.",
		}),
		RepliesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "replies_suppressed_total",
			Help:      "Command batches that produced nothing actionable and no reply.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		ForecastFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "forecast_fetches_total",
			Help:      "Forecast API requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		WeatherAPITiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wetter_bericht",
			Name:      "weather_api_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		DigestRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wetter_bericht",
			Name:      "digest_runs_total",
			Help:      "Scheduled digest job executions.",
		}),
		DigestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wetter_bericht",
			Name:      "digest_duration_seconds",
			Help:      "Duration of a complete digest run across all subscribers.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),
	}
}
