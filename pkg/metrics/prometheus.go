// Package metrics provides Prometheus metrics for the teammatch service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match run outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeTeamNotFound = "team_not_found"
	OutcomeError        = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	matchRuns        *prometheus.CounterVec
	matchLatency     prometheus.Histogram
	shortlistSize    prometheus.Histogram
	skippedMembers   prometheus.Counter
	duplicateMatches prometheus.Counter

	// Roster
	rosterRecords *prometheus.GaugeVec
	rosterLoads   *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueue  prometheus.Counter
	queueDequeue  prometheus.Counter
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

var globalManager *Manager //nolint:gochecknoglobals // singleton recorder used by the package helpers

func init() { //nolint:gochecknoinits // global metrics setup
	customRegistry.MustRegister(collectors.NewGoCollector())
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teammatch",
		subsystem:        "",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_runs_total",
		Help:      "Matcher runs by outcome",
	}, []string{"mode", "outcome"})

	m.matchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_latency_milliseconds",
		Help:      "Time spent ranking one team, snapshot included",
		Buckets:   m.histogramBuckets,
	})

	m.shortlistSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shortlist_size",
		Help:      "Number of candidates returned per run",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})

	m.skippedMembers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matcher_skipped_members_total",
		Help:      "Eligible members skipped because their user record was missing",
	})

	m.duplicateMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_requests_duplicate_total",
		Help:      "Match requests dropped as duplicates",
	})

	m.rosterRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_records",
		Help:      "Records in the current roster snapshot by kind",
	}, []string{"kind"})

	m.rosterLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_loads_total",
		Help:      "Roster loads by source and result",
	}, []string{"source", "result"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Pending match requests",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum pending match requests",
	})

	m.queueEnqueue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueued_total",
		Help:      "Match requests accepted by the queue",
	})

	m.queueDequeue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeued_total",
		Help:      "Match requests handed to workers",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejected_total",
		Help:      "Match requests rejected by the queue",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Running match workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time a worker spends on one match request",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordMatchRun counts one matcher run. mode is "sync" or "async".
func RecordMatchRun(mode, outcome string) error {
	switch outcome {
	case OutcomeOK, OutcomeTeamNotFound, OutcomeError:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutcome, outcome)
	}
	globalManager.matchRuns.WithLabelValues(mode, outcome).Inc()
	return nil
}

// RecordMatchLatency observes the duration of one ranking run.
func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

// RecordShortlistSize observes the number of candidates returned.
func RecordShortlistSize(n int) {
	globalManager.shortlistSize.Observe(float64(n))
}

// RecordSkippedMembers adds n members skipped for missing user records.
func RecordSkippedMembers(n int) {
	if n > 0 {
		globalManager.skippedMembers.Add(float64(n))
	}
}

// RecordMatchDuplicate counts a duplicate match request.
func RecordMatchDuplicate() {
	globalManager.duplicateMatches.Inc()
}

// UpdateRosterRecords sets the record count for one kind (teams, members, users, beacons).
func UpdateRosterRecords(kind string, n int) {
	globalManager.rosterRecords.WithLabelValues(kind).Set(float64(n))
}

// RecordRosterLoad counts a roster load attempt.
func RecordRosterLoad(source string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.rosterLoads.WithLabelValues(source, result).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes how long a worker spent on a request.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry all package metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
