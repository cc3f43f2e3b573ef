// Package metrics provides Prometheus metrics for the forecast consolidation pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels.
const (
	StageConsolidate = "consolidate"
	StageBaseline    = "baseline"
	StageReconcile   = "reconcile"
)

// Manager manages the Prometheus metrics of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	runs             *prometheus.CounterVec
	models           *prometheus.CounterVec
	rowsDropped      *prometheus.CounterVec
	duplicatesMerged prometheus.Counter
	fills            *prometheus.CounterVec
	cellsFilled      prometheus.Counter
	stageDuration    *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Managers created by ForNamespace, keyed by namespace.
var (
	namespacedMu sync.Mutex                  //nolint:gochecknoglobals // guards namespaced
	namespaced   = make(map[string]*Manager) //nolint:gochecknoglobals // one manager per namespace on customRegistry
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Metrics are registered on the
// configured registry (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "consolidator",
		subsystem:        "pipeline",
		histogramBuckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of pipeline stage invocations",
	}, []string{"stage"})

	m.models = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "models_total",
		Help:      "Model tables seen by the consolidator, by outcome (consolidated, reserved, empty, schema)",
	}, []string{"outcome"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_dropped_total",
		Help:      "Rows or cells dropped because they failed date or numeric coercion",
	}, []string{"stage"})

	m.duplicatesMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_merged_total",
		Help:      "Forecast rows folded into an existing (model, month) cell by averaging",
	})

	m.fills = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fill_total",
		Help:      "Baseline reconciliation calls by outcome",
	}, []string{"outcome"})

	m.cellsFilled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cells_filled_total",
		Help:      "Wide-table cells overwritten with baseline values",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})
}

// RecordRun counts one invocation of stage.
func (m *Manager) RecordRun(stage string) {
	if m.enabled {
		m.runs.WithLabelValues(stage).Inc()
	}
}

// RecordModel counts one model table with its outcome.
func (m *Manager) RecordModel(outcome string) {
	if m.enabled {
		m.models.WithLabelValues(outcome).Inc()
	}
}

// RecordRowsDropped adds n dropped rows for stage.
func (m *Manager) RecordRowsDropped(stage string, n int) {
	if m.enabled && n > 0 {
		m.rowsDropped.WithLabelValues(stage).Add(float64(n))
	}
}

// RecordDuplicatesMerged adds n merged duplicates.
func (m *Manager) RecordDuplicatesMerged(n int) {
	if m.enabled && n > 0 {
		m.duplicatesMerged.Add(float64(n))
	}
}

// RecordFill counts one reconciliation with its outcome.
func (m *Manager) RecordFill(outcome string) {
	if m.enabled {
		m.fills.WithLabelValues(outcome).Inc()
	}
}

// RecordCellsFilled adds n overwritten cells.
func (m *Manager) RecordCellsFilled(n int) {
	if m.enabled && n > 0 {
		m.cellsFilled.Add(float64(n))
	}
}

// ObserveStageDuration records how long stage took, in seconds.
func (m *Manager) ObserveStageDuration(stage string, seconds float64) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(seconds)
	}
}

// Default returns the global manager registered on the custom registry.
func Default() *Manager { return globalManager }

// ForNamespace returns the manager for namespace on the custom registry,
// creating it on first use. The default namespace yields the global manager.
func ForNamespace(namespace string) *Manager {
	if namespace == "" || namespace == globalManager.namespace {
		return globalManager
	}
	namespacedMu.Lock()
	defer namespacedMu.Unlock()
	if m, ok := namespaced[namespace]; ok {
		return m
	}
	m := NewManager(WithNamespace(namespace), WithPrometheusRegistry(customRegistry))
	namespaced[namespace] = m
	return m
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry { return customRegistry }

// RecordRun counts one invocation of stage on the global manager.
func RecordRun(stage string) { globalManager.RecordRun(stage) }

// RecordModel counts one model table on the global manager.
func RecordModel(outcome string) { globalManager.RecordModel(outcome) }

// RecordFill counts one reconciliation on the global manager.
func RecordFill(outcome string) { globalManager.RecordFill(outcome) }
