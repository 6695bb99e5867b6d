// Package metrics provides Prometheus metrics for the boared service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Rating replay
	replays         prometheus.Counter
	replayCacheHits prometheus.Counter
	replayDuration  prometheus.Histogram
	sessionsRated   prometheus.Counter
	sessionsSkipped prometheus.Counter

	// History size
	members  prometheus.Gauge
	sessions prometheus.Gauge

	// Writes and cache
	storeWrites        *prometheus.CounterVec
	publishes          *prometheus.CounterVec
	publishQueueLength prometheus.Gauge
	publishCoalesced   prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go metrics out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "boared",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.replays = m.counter("replays_total", "Rating replays computed from the session history")
	m.replayCacheHits = m.counter("replay_cache_hits_total", "Rating requests served from the memoized replay")
	m.replayDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "replay_duration_milliseconds",
		Help:        "Time to replay the full history in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
	m.sessionsRated = m.counter("sessions_rated_total", "Sessions that updated ratings during replays")
	m.sessionsSkipped = m.counter("sessions_skipped_total", "Sessions skipped for having fewer than two results")

	m.members = m.gauge("members", "Members in the last replayed history")
	m.sessions = m.gauge("sessions", "Sessions in the last replayed history")

	m.storeWrites = m.counterVec("store_writes_total", "Store writes by operation and result", "op", "result")
	m.publishes = m.counterVec("cache_publishes_total", "Leaderboard publishes to Redis by result", "result")
	m.publishQueueLength = m.gauge("publish_queue_length", "Pending asynchronous publish jobs")
	m.publishCoalesced = m.counter("publish_coalesced_total", "Publish jobs folded into another publish")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("http_errors_total", "HTTP error responses by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordReplay records one full replay.
func RecordReplay(durationMs float64, rated, skipped int) {
	if !globalManager.enabled {
		return
	}
	globalManager.replays.Inc()
	globalManager.replayDuration.Observe(durationMs)
	globalManager.sessionsRated.Add(float64(rated))
	globalManager.sessionsSkipped.Add(float64(skipped))
}

// RecordReplayCacheHit counts a request served without replaying.
func RecordReplayCacheHit() {
	if globalManager.enabled {
		globalManager.replayCacheHits.Inc()
	}
}

// UpdateHistorySize sets the member and session gauges.
func UpdateHistorySize(members, sessions int) {
	if !globalManager.enabled {
		return
	}
	globalManager.members.Set(float64(members))
	globalManager.sessions.Set(float64(sessions))
}

// RecordStoreWrite counts a write operation by outcome.
func RecordStoreWrite(op string, err error) {
	if globalManager.enabled {
		globalManager.storeWrites.WithLabelValues(op, result(err)).Inc()
	}
}

// RecordPublish counts a cache publish by outcome.
func RecordPublish(err error) {
	if globalManager.enabled {
		globalManager.publishes.WithLabelValues(result(err)).Inc()
	}
}

// UpdatePublishQueueLength sets the pending publish job gauge.
func UpdatePublishQueueLength(n int) {
	if globalManager.enabled {
		globalManager.publishQueueLength.Set(float64(n))
	}
}

// RecordPublishCoalesced counts publish jobs that did not need their own
// publish.
func RecordPublishCoalesced(n int) {
	if globalManager.enabled {
		globalManager.publishCoalesced.Add(float64(n))
	}
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMetrics samples the runtime into the system gauges.
func UpdateSystemMetrics() {
	if !globalManager.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapInuse))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
