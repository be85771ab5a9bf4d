package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/arbor/pkg/reconcile"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "arbor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "arbor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reconcile.Observer that records Prometheus metrics:
//
//   - arbor_walks_total: walks started
//   - arbor_units_total{kind}: units of work, "render" or "host"
//   - arbor_yields_total: turns that ended with an unfinished walk
//   - arbor_commits_total{status}: commits by "success" or "error"
//   - arbor_commit_duration_seconds: commit duration
//   - arbor_host_operations_total{op}: created, updated, placed, removed
//   - arbor_lifecycle_total{event}: mounted and unmounted listener batches
//   - arbor_listener_errors_total{kind}: recovered listener panics
//   - arbor_patches_sent_total: remote patches sent (RecordPatches)
//   - arbor_active_sessions: live sessions (SessionOpened/SessionClosed)
type Metrics struct {
	walks          prometheus.Counter
	units          *prometheus.CounterVec
	yields         prometheus.Counter
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	hostOps        *prometheus.CounterVec
	lifecycle      *prometheus.CounterVec
	listenerErrors *prometheus.CounterVec
	patchesSent    prometheus.Counter
	activeSessions prometheus.Gauge
}

var _ reconcile.Observer = (*Metrics)(nil)

// NewMetrics registers the metrics and returns the observer. Registering
// twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		walks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "walks_total",
			Help:        "Total number of reconciliation walks started",
			ConstLabels: config.ConstLabels,
		}),

		units: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "units_total",
			Help:        "Total number of units of work performed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		yields: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "yields_total",
			Help:        "Total number of turns that yielded with an unfinished walk",
			ConstLabels: config.ConstLabels,
		}),

		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of commits",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_operations_total",
			Help:        "Total number of host operations applied by commits",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		lifecycle: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lifecycle_total",
			Help:        "Total number of instances mounted and unmounted",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		listenerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_errors_total",
			Help:        "Total number of recovered listener panics",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to remote clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) WalkStarted() {
	m.walks.Inc()
}

func (m *Metrics) UnitPerformed(rendered bool) {
	if rendered {
		m.units.WithLabelValues("render").Inc()
		return
	}
	m.units.WithLabelValues("host").Inc()
}

func (m *Metrics) Yielded() {
	m.yields.Inc()
}

func (m *Metrics) Committed(stats reconcile.CommitStats, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.commits.WithLabelValues(status).Inc()
	m.commitDuration.Observe(elapsed.Seconds())

	m.hostOps.WithLabelValues("created").Add(float64(stats.Created))
	m.hostOps.WithLabelValues("updated").Add(float64(stats.Updated))
	m.hostOps.WithLabelValues("placed").Add(float64(stats.Placed))
	m.hostOps.WithLabelValues("removed").Add(float64(stats.Removed))
	m.lifecycle.WithLabelValues("mounted").Add(float64(stats.Mounted))
	m.lifecycle.WithLabelValues("unmounted").Add(float64(stats.Unmounted))
}

func (m *Metrics) ListenerFailed(kind string) {
	m.listenerErrors.WithLabelValues(kind).Inc()
}

// RecordPatches adds n to the patches sent counter.
func (m *Metrics) RecordPatches(n int) {
	m.patchesSent.Add(float64(n))
}

// SessionOpened increments the active sessions gauge.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed decrements the active sessions gauge.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}
