package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Flightdeck
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Provider Metrics
	ProviderCallsTotal   prometheus.CounterVec
	ProviderCallDuration prometheus.HistogramVec
	BudgetDeferralsTotal prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Engine Metrics
	FlightsTracked     prometheus.Gauge
	RefreshSweepTotal  prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	FlightsPrunedTotal prometheus.Counter
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightdeck_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),

		ProviderCallsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_provider_calls_total",
				Help: "Total provider calls by provider, capability and outcome",
			},
			[]string{"provider", "capability", "outcome"},
		),
		ProviderCallDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightdeck_provider_call_duration_seconds",
				Help:    "Provider call latency distribution in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
			},
			[]string{"provider", "capability"},
		),
		BudgetDeferralsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_budget_deferrals_total",
				Help: "Refresh attempts deferred because a provider call budget was exhausted",
			},
			[]string{"provider"},
		),

		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		FlightsTracked: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flightdeck_flights_tracked",
				Help: "Number of manual flights currently tracked",
			},
		),
		RefreshSweepTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightdeck_refresh_sweeps_total",
				Help: "Refresh sweeps by trigger (scheduled or on_demand) and result",
			},
			[]string{"trigger", "result"},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flightdeck_sweep_duration_seconds",
				Help:    "Refresh sweep wall-clock duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		FlightsPrunedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flightdeck_flights_pruned_total",
				Help: "Manual flights removed by the prune policy",
			},
		),
	}
}
