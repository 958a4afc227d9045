// Package metrics provides Prometheus metrics for the engagement insight service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Bucket layouts shared by the histograms below.
var (
	latencyBucketsMs  = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250} //nolint:gochecknoglobals // bucket layout
	probabilityBucket = prometheus.LinearBuckets(0, 0.1, 11)                            //nolint:gochecknoglobals // bucket layout
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline metrics
	analysesTotal      *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	nudgesGenerated    *prometheus.CounterVec
	ruleEvaluations    *prometheus.CounterVec
	fomoScore          prometheus.Histogram
	pipelineFallbacks  prometheus.Counter
	fillerNudges       prometheus.Counter
	classifierProb     *prometheus.HistogramVec
	classifierErrors   *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec

	// Batch worker metrics
	batchQueueSize   prometheus.Gauge
	batchWorkerCount prometheus.Gauge
	batchJobs        *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
}

// Global metrics manager and the registry it writes to. Init replaces both.
var (
	globalMu       sync.RWMutex         //nolint:gochecknoglobals // guards the singleton below
	globalManager  *Manager             //nolint:gochecknoglobals // intentional global for singleton metrics manager
	customRegistry *prometheus.Registry //nolint:gochecknoglobals // intentional global for metrics registry
)

// Initialize global metrics with defaults so packages can record before Init.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Init()
}

// Init rebuilds the global manager on a fresh registry with opts applied.
// It is meant to run once at start-up, before metrics are served.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := NewManager(append(opts, WithPrometheusRegistry(registry))...)

	globalMu.Lock()
	globalManager, customRegistry = m, registry
	globalMu.Unlock()
}

func current() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "insight",
		subsystem:        "engagement",
		histogramBuckets: latencyBucketsMs,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.analysesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analyses_total",
		Help:        "Total number of engagement analyses by outcome (generated, fallback)",
		ConstLabels: m.customLabels,
	}, []string{"outcome"})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_latency_milliseconds",
		Help:        "Latency of a single nudge pipeline run in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.nudgesGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "nudges_generated_total",
		Help:        "Nudges returned to callers by producing stage and nudge type",
		ConstLabels: m.customLabels,
	}, []string{"source", "type"})

	m.ruleEvaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rule_evaluations_total",
		Help:        "Rule evaluations by rule and result (fired, skipped, error)",
		ConstLabels: m.customLabels,
	}, []string{"rule", "result"})

	m.fomoScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fomo_score",
		Help:        "Distribution of computed FOMO scores",
		Buckets:     probabilityBucket,
		ConstLabels: m.customLabels,
	})

	m.pipelineFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pipeline_fallbacks_total",
		Help:        "Analyses that failed unexpectedly and returned the single error nudge",
		ConstLabels: m.customLabels,
	})

	m.fillerNudges = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "filler_nudges_total",
		Help:        "Static filler nudges appended to reach the nudge cap",
		ConstLabels: m.customLabels,
	})

	m.classifierProb = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "classifier_probability",
		Help:        "Probabilities returned by the nudge classifiers",
		Buckets:     probabilityBucket,
		ConstLabels: m.customLabels,
	}, []string{"model"})

	m.classifierErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "classifier_errors_total",
		Help:        "Classifier invocations that failed and were treated as not firing",
		ConstLabels: m.customLabels,
	}, []string{"model"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "classifier_breaker_state",
		Help:        "Circuit breaker state per classifier (0=closed, 1=half-open, 2=open)",
		ConstLabels: m.customLabels,
	}, []string{"model"})

	m.breakerTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "classifier_breaker_transitions_total",
		Help:        "Circuit breaker state transitions per classifier",
		ConstLabels: m.customLabels,
	}, []string{"model", "from", "to"})

	m.batchQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_queue_size",
		Help:        "Current number of queued batch analysis jobs",
		ConstLabels: m.customLabels,
	})

	m.batchWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_worker_count",
		Help:        "Number of batch analysis workers",
		ConstLabels: m.customLabels,
	})

	m.batchJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_jobs_total",
		Help:        "Batch analysis jobs by result (processed, rejected)",
		ConstLabels: m.customLabels,
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "error_type"})
}

// Manager methods. Each is a no-op when the manager is disabled.

// RecordAnalysis counts a finished analysis and its latency.
func (m *Manager) RecordAnalysis(outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
	m.analysisLatency.Observe(latencyMs)
}

// RecordNudge counts a nudge returned by the given stage.
func (m *Manager) RecordNudge(source, nudgeType string) {
	if !m.enabled {
		return
	}
	m.nudgesGenerated.WithLabelValues(source, nudgeType).Inc()
}

// RecordRuleEvaluation counts a rule outcome.
func (m *Manager) RecordRuleEvaluation(rule, result string) {
	if !m.enabled {
		return
	}
	m.ruleEvaluations.WithLabelValues(rule, result).Inc()
}

// ObserveFomoScore records a FOMO score.
func (m *Manager) ObserveFomoScore(score float64) {
	if !m.enabled {
		return
	}
	m.fomoScore.Observe(score)
}

// RecordPipelineFallback counts an analysis that returned the error nudge.
func (m *Manager) RecordPipelineFallback() {
	if !m.enabled {
		return
	}
	m.pipelineFallbacks.Inc()
}

// RecordFillerNudge counts a filler nudge.
func (m *Manager) RecordFillerNudge() {
	if !m.enabled {
		return
	}
	m.fillerNudges.Inc()
}

// ObserveClassifierProbability records a probability returned by a model.
func (m *Manager) ObserveClassifierProbability(model string, p float64) {
	if !m.enabled {
		return
	}
	m.classifierProb.WithLabelValues(model).Observe(p)
}

// RecordClassifierError counts a failed classifier invocation.
func (m *Manager) RecordClassifierError(model string) {
	if !m.enabled {
		return
	}
	m.classifierErrors.WithLabelValues(model).Inc()
}

// SetBreakerState sets the breaker state gauge and counts the transition.
func (m *Manager) SetBreakerState(model, from, to string, value float64) {
	if !m.enabled {
		return
	}
	m.breakerState.WithLabelValues(model).Set(value)
	if from != "" {
		m.breakerTransitions.WithLabelValues(model, from, to).Inc()
	}
}

// UpdateBatchQueueSize sets the batch queue gauge.
func (m *Manager) UpdateBatchQueueSize(size int) {
	if !m.enabled {
		return
	}
	m.batchQueueSize.Set(float64(size))
}

// UpdateBatchWorkerCount sets the worker gauge.
func (m *Manager) UpdateBatchWorkerCount(count int) {
	if !m.enabled {
		return
	}
	m.batchWorkerCount.Set(float64(count))
}

// RecordBatchJob counts a batch job by result.
func (m *Manager) RecordBatchJob(result string) {
	if !m.enabled {
		return
	}
	m.batchJobs.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts a request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Global helpers delegating to the singleton manager.

// RecordAnalysis records a finished analysis.
func RecordAnalysis(outcome string, latencyMs float64) {
	current().RecordAnalysis(outcome, latencyMs)
}

// RecordNudge records a returned nudge.
func RecordNudge(source, nudgeType string) {
	current().RecordNudge(source, nudgeType)
}

// RecordRuleEvaluation records a rule outcome.
func RecordRuleEvaluation(rule, result string) {
	current().RecordRuleEvaluation(rule, result)
}

// ObserveFomoScore records a FOMO score.
func ObserveFomoScore(score float64) {
	current().ObserveFomoScore(score)
}

// RecordPipelineFallback records a top-level fallback.
func RecordPipelineFallback() {
	current().RecordPipelineFallback()
}

// RecordFillerNudge records a filler nudge.
func RecordFillerNudge() {
	current().RecordFillerNudge()
}

// ObserveClassifierProbability records a classifier probability.
func ObserveClassifierProbability(model string, p float64) {
	current().ObserveClassifierProbability(model, p)
}

// RecordClassifierError records a classifier failure.
func RecordClassifierError(model string) {
	current().RecordClassifierError(model)
}

// SetBreakerState records a breaker state change.
func SetBreakerState(model, from, to string, value float64) {
	current().SetBreakerState(model, from, to, value)
}

// UpdateBatchQueueSize updates the batch queue gauge.
func UpdateBatchQueueSize(size int) {
	current().UpdateBatchQueueSize(size)
}

// UpdateBatchWorkerCount updates the batch worker gauge.
func UpdateBatchWorkerCount(count int) {
	current().UpdateBatchWorkerCount(count)
}

// RecordBatchJob records a batch job result.
func RecordBatchJob(result string) {
	current().RecordBatchJob(result)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	current().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	current().RecordHTTPError(endpoint, method, errorType)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return customRegistry
}
