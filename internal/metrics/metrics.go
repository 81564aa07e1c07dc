package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed forecast runs.
	OutcomeSuccess = "success"
	// OutcomeError labels failed forecast runs (bad input, fit or prediction failures).
	OutcomeError = "error"
)

var (
	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metro_forecast",
			Name:      "forecasts_total",
			Help:      "Total number of forecast requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	forecastDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "metro_forecast",
			Name:      "forecast_seconds",
			Help:      "Forecast pipeline latency in seconds, dominated by model fitting.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	stationLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metro_forecast",
			Name:      "station_lookups_total",
			Help:      "Station data lookups, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metro_forecast",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, partitioned by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)
)

// Register attaches the service collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		forecastsTotal,
		forecastDurationSeconds,
		stationLookupsTotal,
		httpRequestsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveForecast records a pipeline run's duration and outcome label.
func ObserveForecast(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	forecastsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	forecastDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, code int) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// ObserveStationLookup records a station data lookup outcome.
func ObserveStationLookup(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	stationLookupsTotal.WithLabelValues(label).Inc()
}
