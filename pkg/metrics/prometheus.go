// Package metrics provides Prometheus metrics for the tavern encounter service.
package metrics

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// difficultyLabels are the only values accepted by RecordEvaluation.
var difficultyLabels = []string{"easy", "medium", "hard", "deadly"} //nolint:gochecknoglobals // fixed label set

// Manager manages all Prometheus metrics for the tavern service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Evaluation metrics
	evaluations       *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	evaluationErrors  prometheus.Counter
	evaluatedMonsters prometheus.Histogram

	// Builder state
	encountersTotal     prometheus.Gauge
	combatantsTotal     prometheus.Gauge
	playlistVideosTotal prometheus.Gauge

	// Catalog metrics
	monsterQueries  *prometheus.CounterVec
	catalogMonsters prometheus.Gauge

	// MCP tool metrics
	toolCalls *prometheus.CounterVec

	// Repository metrics
	repositoryUtilization   prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tavern",
		subsystem:        "encounters",
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

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Evaluation metrics
	m.evaluations = auto.NewCounterVec(
		m.counterOpts("evaluations_total", "Total number of encounter evaluations by resulting difficulty"),
		[]string{"difficulty"},
	)
	m.evaluationLatency = auto.NewHistogram(
		m.histogramOpts("evaluation_latency_milliseconds", "Encounter evaluation latency in milliseconds", m.histogramBuckets),
	)
	m.evaluationErrors = auto.NewCounter(
		m.counterOpts("evaluation_errors_total", "Total number of rejected evaluations"),
	)
	m.evaluatedMonsters = auto.NewHistogram(
		m.histogramOpts("evaluated_monsters", "Number of monsters per evaluated encounter", []float64{1, 2, 3, 6, 10, 14, 20, 50}),
	)

	// Builder state
	m.encountersTotal = auto.NewGauge(m.gaugeOpts("saved_encounters", "Number of saved encounters"))
	m.combatantsTotal = auto.NewGauge(m.gaugeOpts("initiative_combatants", "Number of combatants in the initiative order"))
	m.playlistVideosTotal = auto.NewGauge(m.gaugeOpts("playlist_videos", "Number of videos in the session playlist"))

	// Catalog metrics
	m.monsterQueries = auto.NewCounterVec(
		m.counterOpts("monster_queries_total", "Monster catalog queries by kind"),
		[]string{"kind"},
	)
	m.catalogMonsters = auto.NewGauge(m.gaugeOpts("catalog_monsters", "Number of monsters in the loaded catalog"))

	// MCP tool metrics
	m.toolCalls = auto.NewCounterVec(
		m.counterOpts("mcp_tool_calls_total", "MCP tool invocations by tool and outcome"),
		[]string{"tool", "status"},
	)

	// Repository metrics
	m.repositoryUtilization = auto.NewGauge(
		m.gaugeOpts("repository_utilization_ratio", "Encounter store utilization ratio (records / capacity)"),
	)
	m.repositoryUpdateLatency = auto.NewHistogram(
		m.histogramOpts("repository_update_latency_milliseconds", "Repository write latency in milliseconds", m.histogramBuckets),
	)
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository read latency in milliseconds", m.histogramBuckets),
	)

	// HTTP performance metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	// System performance metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordEvaluation counts a successful evaluation and its latency.
// difficulty must be one of easy, medium, hard or deadly.
func RecordEvaluation(difficulty string, monsters int, latencyMs float64) error {
	if !slices.Contains(difficultyLabels, difficulty) {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	globalManager.evaluations.WithLabelValues(difficulty).Inc()
	globalManager.evaluationLatency.Observe(latencyMs)
	globalManager.evaluatedMonsters.Observe(float64(monsters))
	return nil
}

// RecordEvaluationError increments the rejected evaluations counter.
func RecordEvaluationError() {
	globalManager.evaluationErrors.Inc()
}

// UpdateEncountersTotal sets the number of saved encounters.
func UpdateEncountersTotal(count int) {
	globalManager.encountersTotal.Set(float64(count))
}

// UpdateCombatantsTotal sets the number of tracked combatants.
func UpdateCombatantsTotal(count int) {
	globalManager.combatantsTotal.Set(float64(count))
}

// UpdatePlaylistVideos sets the number of queued videos.
func UpdatePlaylistVideos(count int) {
	globalManager.playlistVideosTotal.Set(float64(count))
}

// RecordMonsterQuery counts a catalog query. kind is search, suggest or lookup.
func RecordMonsterQuery(kind string) {
	globalManager.monsterQueries.WithLabelValues(kind).Inc()
}

// UpdateCatalogMonsters sets the size of the loaded catalog.
func UpdateCatalogMonsters(count int) {
	globalManager.catalogMonsters.Set(float64(count))
}

// RecordToolCall counts an MCP tool invocation.
func RecordToolCall(tool, status string) {
	globalManager.toolCalls.WithLabelValues(tool, status).Inc()
}

// UpdateRepositoryUtilization sets the encounter store utilization ratio.
func UpdateRepositoryUtilization(utilization float64) {
	globalManager.repositoryUtilization.Set(utilization)
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
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

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
