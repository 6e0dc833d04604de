// Package metrics provides Prometheus metrics for the RacketRank API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by cache, provider and store metrics.
// OutcomeRateLimited marks a provider call abandoned while waiting for the
// client-side rate limiter.
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeError       = "error"
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeDropped     = "dropped"
	OutcomeTimeout     = "timeout"
	OutcomeRateLimited = "rate_limited"
	OutcomeDuplicate   = "duplicate"
	OutcomeClosed      = "closed"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Rankings
	rankingsServed *prometheus.CounterVec
	rankingsErrors *prometheus.CounterVec

	// Cache layers
	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec

	// Location resolution
	resolutions      *prometheus.CounterVec
	uncurated        prometheus.Counter
	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec

	// Profile store
	storeQueries       *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec

	// Warmer queue and workers
	warmQueueSize     prometheus.Gauge
	warmQueueCapacity prometheus.Gauge
	warmEnqueued      *prometheus.CounterVec
	warmActiveWorkers prometheus.Gauge
	warmDuration      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "racketrank",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"HTTP request duration in seconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.rankingsServed = m.counterVec("rankings_served_total",
		"Leaderboards served by level and cache state", "level", "cached")
	m.rankingsErrors = m.counterVec("rankings_errors_total",
		"Failed ranking requests by level and error kind", "level", "kind")

	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Cache lookups by layer and outcome (hit, miss, error)", "layer", "outcome")
	m.cacheWrites = m.counterVec("cache_writes_total",
		"Cache upserts by layer and outcome (ok, error)", "layer", "outcome")

	m.resolutions = m.counterVec("location_resolutions_total",
		"Location resolutions by the step that produced the answer", "source")
	m.uncurated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "uncurated_countries_total",
		Help:        "Country names matched verbatim because no synonym group covers them",
		ConstLabels: m.customLabels,
	})
	m.providerCalls = m.counterVec("provider_calls_total",
		"External geo provider calls by provider and outcome", "provider", "outcome")
	m.providerDuration = m.histogramVec("provider_call_duration_seconds",
		"External geo provider call duration in seconds", m.histogramBuckets, "provider")

	m.storeQueries = m.counterVec("store_queries_total",
		"Profile store queries by filtered field and outcome (ok, empty, error)", "field", "outcome")
	m.storeQueryDuration = m.histogramVec("store_query_duration_seconds",
		"Profile store query duration in seconds", m.histogramBuckets, "field")

	m.warmQueueSize = m.gauge("warm_queue_size", "Current number of queued warm tasks")
	m.warmQueueCapacity = m.gauge("warm_queue_capacity", "Maximum number of queued warm tasks")
	m.warmEnqueued = m.counterVec("warm_enqueue_total",
		"Warm task submissions by outcome (ok, duplicate, dropped, closed)", "outcome")
	m.warmActiveWorkers = m.gauge("warm_workers_active", "Warm workers currently refreshing a leaderboard")
	m.warmDuration = m.histogramVec("warm_duration_seconds",
		"Warm refreshes of one country leaderboard by outcome (ok, error)", m.histogramBuckets, "outcome")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRankingsServed counts a successful leaderboard response.
func RecordRankingsServed(level string, cached bool) {
	c := "false"
	if cached {
		c = "true"
	}
	globalManager.rankingsServed.WithLabelValues(level, c).Inc()
}

// RecordRankingsError counts a failed ranking request.
func RecordRankingsError(level, kind string) {
	globalManager.rankingsErrors.WithLabelValues(level, kind).Inc()
}

// RecordCacheLookup counts a cache read for layer.
func RecordCacheLookup(layer, outcome string) {
	globalManager.cacheLookups.WithLabelValues(layer, outcome).Inc()
}

// RecordCacheWrite counts a cache upsert for layer.
func RecordCacheWrite(layer, outcome string) {
	globalManager.cacheWrites.WithLabelValues(layer, outcome).Inc()
}

// RecordResolution counts which resolution step answered.
func RecordResolution(source string) {
	globalManager.resolutions.WithLabelValues(source).Inc()
}

// RecordUncuratedCountry counts a country name outside every synonym group.
func RecordUncuratedCountry() {
	globalManager.uncurated.Inc()
}

// RecordProviderCall counts an external provider call and its duration.
func RecordProviderCall(provider, outcome string, seconds float64) {
	globalManager.providerCalls.WithLabelValues(provider, outcome).Inc()
	globalManager.providerDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordStoreQuery counts a profile store query and its duration.
func RecordStoreQuery(field, outcome string, seconds float64) {
	globalManager.storeQueries.WithLabelValues(field, outcome).Inc()
	globalManager.storeQueryDuration.WithLabelValues(field).Observe(seconds)
}

// UpdateWarmQueueSize sets the current warm queue size.
func UpdateWarmQueueSize(size int) {
	globalManager.warmQueueSize.Set(float64(size))
}

// UpdateWarmQueueCapacity sets the warm queue capacity.
func UpdateWarmQueueCapacity(capacity int) {
	globalManager.warmQueueCapacity.Set(float64(capacity))
}

// RecordWarmEnqueue counts a warm task submission.
func RecordWarmEnqueue(outcome string) {
	globalManager.warmEnqueued.WithLabelValues(outcome).Inc()
}

// UpdateWarmActiveWorkers sets the number of busy warm workers.
func UpdateWarmActiveWorkers(count int) {
	globalManager.warmActiveWorkers.Set(float64(count))
}

// RecordWarmDuration observes one warm refresh in seconds.
func RecordWarmDuration(outcome string, seconds float64) {
	globalManager.warmDuration.WithLabelValues(outcome).Observe(seconds)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
