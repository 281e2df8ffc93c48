package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream hazard-data fetches per dataset. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream fetch latency per dataset. Watch for: p95 > 2s (provider degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts per dataset. Watch for: high retries = unstable provider.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Cache hits per dataset; fresh entries served without a provider call.
	CacheHitsTotal *prometheus.CounterVec

	// Stale cache entries served as degraded fallback after a fetch failure.
	StaleServesTotal *prometheus.CounterVec

	// Empty hazard defaults substituted when neither fetch nor cache produced data.
	EmptyDefaultsTotal *prometheus.CounterVec

	// Full refresh cycles by outcome (ok, degraded).
	RefreshCyclesTotal *prometheus.CounterVec

	// End-to-end refresh cycle latency (fetch + score + aggregate).
	RefreshDuration prometheus.Histogram

	// Current per-hazard risk score for the monitored location.
	HazardRiskScore *prometheus.GaugeVec

	// Current composite risk index for the monitored location.
	CompositeRiskScore prometheus.Gauge

	// Active alerts (score >= attention threshold) for the monitored location.
	ActiveAlerts prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker state transitions per upstream component.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Circuit breaker state per component (0 closed, 1 open, 2 half-open).
	CircuitBreakerState *prometheus.GaugeVec

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream hazard-data fetches",
		},
		[]string{"dataset", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream fetch latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"dataset", "status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of retry attempts for upstream fetches",
		},
		[]string{"dataset"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of fresh cache hits per dataset",
		},
		[]string{"dataset"},
	)
	StaleServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleServesTotal",
			Help: "Stale cache entries served after upstream fetch failure",
		},
		[]string{"dataset"},
	)
	EmptyDefaultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emptyDefaultsTotal",
			Help: "Empty hazard defaults substituted when no data was available",
		},
		[]string{"dataset"},
	)
	RefreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshCyclesTotal",
			Help: "Completed engine refresh cycles by outcome",
		},
		[]string{"status"},
	)
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refreshDurationSeconds",
			Help:    "End-to-end refresh cycle latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	HazardRiskScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hazardRiskScore",
			Help: "Current per-hazard risk score (0-100) for the monitored location",
		},
		[]string{"hazard"},
	)
	CompositeRiskScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "compositeRiskScore",
			Help: "Current composite risk index (0-100) for the monitored location",
		},
	)
	ActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "activeAlerts",
			Help: "Number of hazards currently at or above the attention threshold",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions per upstream component",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per component (0 closed, 1 open, 2 half-open)",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamRetriesTotal,
		CacheHitsTotal, StaleServesTotal, EmptyDefaultsTotal,
		RefreshCyclesTotal, RefreshDuration,
		HazardRiskScore, CompositeRiskScore, ActiveAlerts,
		RateLimitDeniedTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
	)
}

// RecordCircuitBreakerTransition records a state change for a component.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the state gauge for a component.
func SetCircuitBreakerStateGauge(component string, state float64) {
	CircuitBreakerState.WithLabelValues(component).Set(state)
}

// RegisterRateLimitGauges registers load and reject gauges for the
// rate-limited path, sourced from the shared traffic tracker. Call once from
// main after config load.
func RegisterRateLimitGauges(window time.Duration, requestCount, denialCount func(time.Duration) int) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(requestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(denialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
