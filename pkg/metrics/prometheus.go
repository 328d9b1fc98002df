// Package metrics provides Prometheus metrics for the enso game service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// scoreBuckets splits the 0-100 score range into deciles.
var scoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Game metrics
	attempts           *prometheus.CounterVec
	attemptScore       prometheus.Histogram
	attemptPoints      prometheus.Histogram
	judgeLatency       prometheus.Histogram
	bestImprovements   prometheus.Counter
	duplicateAttempts  prometheus.Counter
	sessionsActive     prometheus.Gauge
	sessionsCreated    prometheus.Counter
	sessionsExpired    prometheus.Counter
	gestureConnections prometheus.Gauge

	// Leaderboard
	leaderboardUpdates prometheus.Counter
	leaderboardSize    prometheus.Gauge
	leaderboardLatency *prometheus.HistogramVec

	// Queue and workers
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueDequeued   prometheus.Counter
	queueRejected   *prometheus.CounterVec
	workerCount     prometheus.Gauge
	workerLatency   prometheus.Histogram
	workerErrors    prometheus.Counter
	overlayRenderMs prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// active holds the manager the package level recorders write to.
var active atomic.Pointer[global] //nolint:gochecknoglobals // singleton metrics manager

type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, which avoids the default Go collectors. Call it before the
// registry is exposed; handlers built earlier keep serving the old one.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	all := append(append(make([]Option, 0, len(opts)+1), opts...), WithPrometheusRegistry(registry))
	active.Store(&global{manager: NewManager(all...), registry: registry})
}

func current() *Manager { return active.Load().manager }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "enso",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.attempts = m.counterVec("attempts_total", "Judged gestures by outcome", "outcome")
	m.attemptScore = m.histogram("attempt_score", "Scores of gestures that reached the circle-fit scorer", scoreBuckets)
	m.attemptPoints = m.histogram("attempt_points", "Number of points per judged gesture",
		prometheus.ExponentialBuckets(4, 2, 10))
	m.judgeLatency = m.histogram("judge_latency_milliseconds", "Time spent judging a gesture", m.histogramBuckets)
	m.bestImprovements = m.counter("best_score_improvements_total", "Times a session best score improved")
	m.duplicateAttempts = m.counter("attempts_duplicate_total", "Replayed attempts detected by attempt id")
	m.sessionsActive = m.gauge("sessions_active", "Sessions currently alive")
	m.sessionsCreated = m.counter("sessions_created_total", "Sessions created")
	m.sessionsExpired = m.counter("sessions_expired_total", "Sessions ended by expiry or explicitly")
	m.gestureConnections = m.gauge("gesture_connections", "Open WebSocket gesture recorders")

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard rows improved")
	m.leaderboardSize = m.gauge("leaderboard_size", "Rows held by the leaderboard")
	m.leaderboardLatency = m.histogramVec("leaderboard_latency_milliseconds", "Leaderboard operation latency",
		m.histogramBuckets, "operation")

	m.queueSize = m.gauge("queue_size", "Pending leaderboard publications")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the publication queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Publications accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Publications handed to workers")
	m.queueRejected = m.counterVec("queue_rejected_total", "Publications rejected by the queue", "reason")
	m.workerCount = m.gauge("worker_count", "Publication workers running")
	m.workerLatency = m.histogram("worker_latency_milliseconds", "Publication processing latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Publication failures")
	m.overlayRenderMs = m.histogram("overlay_render_milliseconds", "Overlay PNG rendering latency", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// RecordAttempt counts a judged gesture. score is observed only for scored outcomes.
func RecordAttempt(outcome string, points int, score float64, scored bool) {
	m := current()
	if !m.enabled {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.attemptPoints.Observe(float64(points))
	if scored {
		m.attemptScore.Observe(score)
	}
}

// RecordJudgeLatency records judge latency in milliseconds.
func RecordJudgeLatency(ms float64) { current().judgeLatency.Observe(ms) }

// RecordBestImprovement increments the best-score improvement counter.
func RecordBestImprovement() { current().bestImprovements.Inc() }

// RecordDuplicateAttempt increments the replayed-attempt counter.
func RecordDuplicateAttempt() { current().duplicateAttempts.Inc() }

// UpdateSessionsActive sets the live session gauge.
func UpdateSessionsActive(n int) { current().sessionsActive.Set(float64(n)) }

// RecordSessionCreated increments the created session counter.
func RecordSessionCreated() { current().sessionsCreated.Inc() }

// RecordSessionExpired increments the ended session counter.
func RecordSessionExpired() { current().sessionsExpired.Inc() }

// AddGestureConnections adjusts the open WebSocket gauge by delta.
func AddGestureConnections(delta int) { current().gestureConnections.Add(float64(delta)) }

// RecordLeaderboardUpdate increments the leaderboard update counter.
func RecordLeaderboardUpdate() { current().leaderboardUpdates.Inc() }

// UpdateLeaderboardSize sets the number of leaderboard rows.
func UpdateLeaderboardSize(n int) { current().leaderboardSize.Set(float64(n)) }

// RecordLeaderboardLatency records the latency of a leaderboard operation.
func RecordLeaderboardLatency(operation string, ms float64) {
	current().leaderboardLatency.WithLabelValues(operation).Observe(ms)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { current().queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { current().queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { current().queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { current().queueDequeued.Inc() }

// RecordQueueRejected counts a rejected publication.
func RecordQueueRejected(reason string) { current().queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { current().workerCount.Set(float64(count)) }

// RecordWorkerLatency records worker processing latency in milliseconds.
func RecordWorkerLatency(ms float64) { current().workerLatency.Observe(ms) }

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { current().workerErrors.Inc() }

// RecordOverlayRender records overlay rendering latency in milliseconds.
func RecordOverlayRender(ms float64) { current().overlayRenderMs.Observe(ms) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	current().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	current().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent records an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	current().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	current().errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { current().systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { current().systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { current().systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return active.Load().registry
}

// RefreshInterval reports how often callers should refresh polled gauges.
func RefreshInterval() time.Duration {
	return current().refreshInterval
}
