// Package metrics provides Prometheus metrics for the trendhub service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for source fetches.
const (
	OutcomeSuccess  = "success"
	OutcomeCacheHit = "cache_hit"
	OutcomeDisabled = "disabled"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomePanic    = "panic"
	OutcomePartial  = "partial"
)

// Manager manages all Prometheus metrics for the trendhub service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Source fan-out
	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	sourceRecords      *prometheus.CounterVec
	fanoutDuration     *prometheus.HistogramVec
	fanoutFailures     *prometheus.CounterVec

	// Cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheSets      prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge

	// Collection and scoring
	collections      *prometheus.CounterVec
	collectedRecords *prometheus.HistogramVec
	dedupeMerged     prometheus.Counter
	dedupeDropped    prometheus.Counter
	momentumScores   prometheus.Histogram
	lifecycles       *prometheus.CounterVec

	// Background refresh
	refreshQueueSize    prometheus.Gauge
	refreshQueueCap     prometheus.Gauge
	refreshJobs         *prometheus.CounterVec
	refreshJobLatency   prometheus.Histogram
	refreshWorkerActive prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trendhub",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sourceFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_fetches_total",
		Help:      "Source capability calls by source, capability and outcome",
	}, []string{"source", "capability", "outcome"})

	m.sourceFetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_fetch_latency_milliseconds",
		Help:      "Latency of source capability calls in milliseconds",
		Buckets:   []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"source", "capability"})

	m.sourceRecords = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_records_total",
		Help:      "Records returned by each source",
	}, []string{"source", "capability"})

	m.fanoutDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fanout_duration_milliseconds",
		Help:      "Wall time of one fan-out across all sources",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"capability"})

	m.fanoutFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fanout_failures_total",
		Help:      "Per-source failures recorded by the aggregation manager",
	}, []string{"source", "capability", "reason"})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Cache reads that returned a live entry",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Cache reads that found nothing or an expired entry",
	})

	m.cacheSets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_sets_total",
		Help:      "Cache writes",
	})

	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_evictions_total",
		Help:      "Expired cache entries removed",
	})

	m.cacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of cache entries",
	})

	m.collections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "collections_total",
		Help:      "Collection runs by capability and whether any source failed",
	}, []string{"capability", "partial"})

	m.collectedRecords = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "collected_records",
		Help:      "Number of records in one flattened collection",
		Buckets:   []float64{0, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"capability"})

	m.dedupeMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_merged_total",
		Help:      "Records merged into an earlier record with the same name",
	})

	m.dedupeDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_dropped_total",
		Help:      "Records dropped before deduplication because they lacked a name",
	})

	m.momentumScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "momentum_score",
		Help:      "Distribution of computed momentum scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.lifecycles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lifecycle_total",
		Help:      "Scored trends by lifecycle band",
	}, []string{"lifecycle"})

	m.refreshQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_queue_size",
		Help:      "Pending background refresh jobs",
	})

	m.refreshQueueCap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_queue_capacity",
		Help:      "Capacity of the background refresh queue",
	})

	m.refreshJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_jobs_total",
		Help:      "Background refresh jobs by capability and outcome",
	}, []string{"capability", "outcome"})

	m.refreshJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_job_latency_milliseconds",
		Help:      "Latency of background refresh jobs",
		Buckets:   m.histogramBuckets,
	})

	m.refreshWorkerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_workers",
		Help:      "Number of background refresh workers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Source Metrics Functions.

// RecordSourceFetch counts one source capability call with its outcome.
func RecordSourceFetch(source, capability, outcome string) {
	globalManager.sourceFetches.WithLabelValues(source, capability, outcome).Inc()
}

// RecordSourceLatency records a source call latency in milliseconds.
func RecordSourceLatency(source, capability string, latencyMs float64) {
	globalManager.sourceFetchLatency.WithLabelValues(source, capability).Observe(latencyMs)
}

// RecordSourceRecords adds n to the records returned by a source.
func RecordSourceRecords(source, capability string, n int) {
	globalManager.sourceRecords.WithLabelValues(source, capability).Add(float64(n))
}

// RecordFanout records the wall time of one fan-out.
func RecordFanout(capability string, latencyMs float64) {
	globalManager.fanoutDuration.WithLabelValues(capability).Observe(latencyMs)
}

// RecordFanoutFailure counts a source failure seen by the manager.
func RecordFanoutFailure(source, capability, reason string) {
	globalManager.fanoutFailures.WithLabelValues(source, capability, reason).Inc()
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheSet increments the cache write counter.
func RecordCacheSet() { globalManager.cacheSets.Inc() }

// RecordCacheEvictions adds n expired removals.
func RecordCacheEvictions(n int) { globalManager.cacheEvictions.Add(float64(n)) }

// UpdateCacheSize sets the number of cache entries.
func UpdateCacheSize(n int) { globalManager.cacheSize.Set(float64(n)) }

// Collection and Scoring Metrics Functions.

// RecordCollection counts one collection run and observes its size.
func RecordCollection(capability string, records, failures int) {
	partial := "false"
	if failures > 0 {
		partial = "true"
	}
	globalManager.collections.WithLabelValues(capability, partial).Inc()
	globalManager.collectedRecords.WithLabelValues(capability).Observe(float64(records))
}

// RecordDedupeMerged adds n merged duplicates.
func RecordDedupeMerged(n int) { globalManager.dedupeMerged.Add(float64(n)) }

// RecordDedupeDropped adds n records dropped for lacking a name.
func RecordDedupeDropped(n int) { globalManager.dedupeDropped.Add(float64(n)) }

// RecordMomentumScore observes a computed score and its lifecycle band.
func RecordMomentumScore(score int, lifecycle string) {
	globalManager.momentumScores.Observe(float64(score))
	globalManager.lifecycles.WithLabelValues(lifecycle).Inc()
}

// Refresh Metrics Functions.

// UpdateRefreshQueueSize sets the pending refresh job count.
func UpdateRefreshQueueSize(n int) { globalManager.refreshQueueSize.Set(float64(n)) }

// UpdateRefreshQueueCapacity sets the refresh queue capacity.
func UpdateRefreshQueueCapacity(n int) { globalManager.refreshQueueCap.Set(float64(n)) }

// RecordRefreshJob counts a refresh job outcome and its latency.
func RecordRefreshJob(capability, outcome string, latencyMs float64) {
	globalManager.refreshJobs.WithLabelValues(capability, outcome).Inc()
	globalManager.refreshJobLatency.Observe(latencyMs)
}

// UpdateRefreshWorkers sets the number of refresh workers.
func UpdateRefreshWorkers(n int) { globalManager.refreshWorkerActive.Set(float64(n)) }

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
