package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Validation metrics
	ValidationRuns     *prometheus.CounterVec
	ValidationIssues   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram

	// Catalog metrics
	RegistrySize  prometheus.Gauge
	LoadFailures  prometheus.Counter
	ExportedItems *prometheus.CounterVec
	SinkPublishes *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisLatency    *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil reg falls back to the default registerer.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Validation metrics
		ValidationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_runs_total",
			Help:      "Total number of catalog validation runs",
		}, []string{"status"}),
		ValidationIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_issues_total",
			Help:      "Total number of validation issues reported",
		}, []string{"severity", "rule"}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating the catalog",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		// Catalog metrics
		RegistrySize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registry_entries",
			Help:      "Current number of registered content entries",
		}),
		LoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_failures_total",
			Help:      "Total number of content files that failed to decode",
		}),
		ExportedItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "exported_items_total",
			Help:      "Total number of entries considered for export",
		}, []string{"outcome"}),
		SinkPublishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sink_publishes_total",
			Help:      "Total number of snapshot publishes per sink",
		}, []string{"sink", "status"}),

		// Database metrics
		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
		RedisLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operation_duration_seconds",
			Help:      "Duration of Redis operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
	}
}

// The Observe helpers below are safe on a nil *Metrics so callers can leave
// metrics unconfigured.

func (m *Metrics) ObserveValidation(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ValidationRuns.WithLabelValues(status).Inc()
	m.ValidationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveIssue(severity, rule string) {
	if m == nil {
		return
	}
	m.ValidationIssues.WithLabelValues(severity, rule).Inc()
}

func (m *Metrics) SetRegistrySize(n int) {
	if m == nil {
		return
	}
	m.RegistrySize.Set(float64(n))
}

func (m *Metrics) ObserveLoadFailures(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LoadFailures.Add(float64(n))
}

func (m *Metrics) ObserveExport(exported, excluded int) {
	if m == nil {
		return
	}
	m.ExportedItems.WithLabelValues("exported").Add(float64(exported))
	m.ExportedItems.WithLabelValues("excluded").Add(float64(excluded))
}

func (m *Metrics) ObserveSink(sink string, err error) {
	if m == nil {
		return
	}
	m.SinkPublishes.WithLabelValues(sink, statusLabel(err)).Inc()
}

func (m *Metrics) ObserveDatabase(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.DatabaseOperations.WithLabelValues(operation, statusLabel(err)).Inc()
	m.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRedis(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RedisOperations.WithLabelValues(operation, statusLabel(err)).Inc()
	m.RedisLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
