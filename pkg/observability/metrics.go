package observability

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airouter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airouter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Routing metrics
	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airouter_classifications_total",
			Help: "Total number of classified prompts by category",
		},
		[]string{"category"},
	)

	providerAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airouter_provider_attempts_total",
			Help: "Total number of provider attempts by outcome",
		},
		[]string{"provider", "status"},
	)

	providerAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airouter_provider_attempt_duration_seconds",
			Help:    "Provider attempt duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	routedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airouter_routed_total",
			Help: "Total number of routed prompts by answering provider",
		},
		[]string{"provider", "category"},
	)

	fallbackExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "airouter_fallback_exhausted_total",
			Help: "Total number of requests where every provider failed",
		},
	)

	pendingProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airouter_pending_processed_total",
			Help: "Total number of pending prompts processed by outcome",
		},
		[]string{"status"},
	)

	// Session metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "airouter_active_sessions",
			Help: "Number of live sessions",
		},
	)

	// System metrics
	memoryUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "airouter_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)

	goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "airouter_goroutines",
			Help: "Number of goroutines",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			classificationsTotal,
			providerAttemptsTotal,
			providerAttemptDuration,
			routedTotal,
			fallbackExhaustedTotal,
			pendingProcessedTotal,
			activeSessions,
			memoryUsage,
			goroutines,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordClassification counts a classified prompt
func RecordClassification(category string) {
	classificationsTotal.WithLabelValues(category).Inc()
}

// RecordProviderAttempt records one provider call. status is "success" or
// the provider error code.
func RecordProviderAttempt(provider, status string, duration time.Duration) {
	providerAttemptsTotal.WithLabelValues(provider, status).Inc()
	providerAttemptDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordRouted counts a prompt answered by provider
func RecordRouted(provider, category string) {
	routedTotal.WithLabelValues(provider, category).Inc()
}

// RecordFallbackExhausted counts a request where every provider failed
func RecordFallbackExhausted() {
	fallbackExhaustedTotal.Inc()
}

// RecordPendingProcessed counts a drained pending prompt
func RecordPendingProcessed(status string) {
	pendingProcessedTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions sets the live sessions gauge
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetMemoryUsage sets the memory usage gauge
func SetMemoryUsage(bytes uint64) {
	memoryUsage.Set(float64(bytes))
}

// SetGoroutines sets the goroutines gauge
func SetGoroutines(count int) {
	goroutines.Set(float64(count))
}

// CollectRuntime refreshes the system gauges from the Go runtime
func CollectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	SetMemoryUsage(m.Alloc)
	SetGoroutines(runtime.NumGoroutine())
}
