// Package metrics provides Prometheus metrics for the bankroll service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Staking and ledger
	betsProposed    prometheus.Counter
	betsRefused     *prometheus.CounterVec
	betsResolved    *prometheus.CounterVec
	stateViolations *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	evictedSessions prometheus.Counter

	// Persistence
	ledgerLoadErrors    prometheus.Counter
	ledgerPersistErrors prometheus.Counter
	storeLatency        *prometheus.HistogramVec

	// Feeds and replay
	feedRecords       *prometheus.GaugeVec
	feedDroppedBlocks *prometheus.GaugeVec
	feedFetchErrors   *prometheus.CounterVec
	replayLatency     *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bankroll",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.betsProposed = auto.NewCounter(m.counterOpts("bets_proposed_total", "Total number of bets moved to pending"))
	m.betsRefused = auto.NewCounterVec(m.counterOpts("bets_refused_total", "Total number of refused stake decisions by reason"), []string{"reason"})
	m.betsResolved = auto.NewCounterVec(m.counterOpts("bets_resolved_total", "Total number of settled bets by outcome"), []string{"outcome"})
	m.stateViolations = auto.NewCounterVec(m.counterOpts("state_violations_total", "Ledger transitions attempted from the wrong state"), []string{"operation"})
	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Number of user ledgers held in memory"))
	m.evictedSessions = auto.NewCounter(m.counterOpts("evicted_sessions_total", "Idle ledger sessions dropped from memory"))

	m.ledgerLoadErrors = auto.NewCounter(m.counterOpts("ledger_load_errors_total", "Ledger loads that failed for a reason other than not found"))
	m.ledgerPersistErrors = auto.NewCounter(m.counterOpts("ledger_persist_errors_total", "Committed ledger changes that could not be saved"))
	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Ledger store operation latency in milliseconds"), []string{"backend", "operation"})

	m.feedRecords = auto.NewGaugeVec(m.gaugeOpts("feed_records", "Records parsed from the last feed load"), []string{"feed"})
	m.feedDroppedBlocks = auto.NewGaugeVec(m.gaugeOpts("feed_dropped_blocks", "Malformed blocks skipped in the last feed load"), []string{"feed"})
	m.feedFetchErrors = auto.NewCounterVec(m.counterOpts("feed_fetch_errors_total", "Feed downloads that failed"), []string{"feed"})
	m.replayLatency = auto.NewHistogramVec(m.histogramOpts("replay_latency_milliseconds", "Historical replay latency in milliseconds"), []string{"mode"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component and type"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// RecordBetProposed increments the proposed bets counter.
func RecordBetProposed() {
	globalManager.betsProposed.Inc()
}

// RecordBetRefused counts a refused decision.
func RecordBetRefused(reason string) {
	globalManager.betsRefused.WithLabelValues(reason).Inc()
}

// RecordBetResolved counts a settled bet.
func RecordBetResolved(outcome string) {
	globalManager.betsResolved.WithLabelValues(outcome).Inc()
}

// RecordStateViolation counts a transition attempted from the wrong state.
func RecordStateViolation(operation string) {
	globalManager.stateViolations.WithLabelValues(operation).Inc()
}

// UpdateActiveSessions sets the number of in-memory sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionsEvicted adds n to the evicted sessions counter.
func RecordSessionsEvicted(n int) {
	globalManager.evictedSessions.Add(float64(n))
}

// RecordLedgerLoadError increments the ledger load error counter.
func RecordLedgerLoadError() {
	globalManager.ledgerLoadErrors.Inc()
}

// RecordLedgerPersistError increments the ledger persist error counter.
func RecordLedgerPersistError() {
	globalManager.ledgerPersistErrors.Inc()
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(backend, operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// UpdateFeedStats sets the parsed and dropped counts of a feed.
func UpdateFeedStats(feed string, records, dropped int) {
	globalManager.feedRecords.WithLabelValues(feed).Set(float64(records))
	globalManager.feedDroppedBlocks.WithLabelValues(feed).Set(float64(dropped))
}

// RecordFeedFetchError increments the fetch error counter of a feed.
func RecordFeedFetchError(feed string) {
	globalManager.feedFetchErrors.WithLabelValues(feed).Inc()
}

// RecordReplayLatency records replay latency in milliseconds.
func RecordReplayLatency(mode string, latencyMs float64) {
	globalManager.replayLatency.WithLabelValues(mode).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
