package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog
	CatalogPageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_catalog_page_fetches_total",
			Help: "Catalog page fetch attempts by provider and result",
		},
		[]string{"provider", "result"}, // ok, retry, error
	)

	CatalogPageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emoshop_catalog_page_duration_seconds",
			Help:    "Duration of a single catalog page fetch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_catalog_loads_total",
			Help: "Completed catalog loads by result",
		},
		[]string{"result"}, // ok, suspicious, config_error, error
	)

	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emoshop_catalog_products",
			Help: "Number of products in the current catalog",
		},
	)

	CatalogRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emoshop_catalog_rejected_records_total",
			Help: "Raw records skipped because they were not objects",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emoshop_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Detection
	DetectionTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_detection_ticks_total",
			Help: "Detection loop ticks by outcome",
		},
		[]string{"result"}, // ok, no_face, failed, dropped
	)

	DetectionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emoshop_detection_latency_seconds",
			Help:    "Time from capture to classified emotion",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	DetectedEmotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_detected_emotions_total",
			Help: "Dominant emotions observed",
		},
		[]string{"emotion"},
	)

	// Cart
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_cart_mutations_total",
			Help: "Cart ledger mutations by operation",
		},
		[]string{"op"},
	)

	CartPersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emoshop_cart_persist_errors_total",
			Help: "Failed write-through cart snapshots",
		},
	)

	// Output
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_mood_events_total",
			Help: "Mood events by sink result",
		},
		[]string{"result"}, // sent, deduplicated, dropped, error
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoshop_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emoshop_api_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordPageFetch records one page attempt.
func RecordPageFetch(provider, result string, d time.Duration) {
	CatalogPageFetches.WithLabelValues(provider, result).Inc()
	CatalogPageDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordDetection records a successful detection.
func RecordDetection(emotion string, latency time.Duration) {
	DetectionTicks.WithLabelValues("ok").Inc()
	DetectedEmotions.WithLabelValues(emotion).Inc()
	if latency > 0 {
		DetectionLatency.Observe(latency.Seconds())
	}
}
