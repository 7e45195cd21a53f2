package storage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the instrumented store wrapper.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "elshaddai").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for operation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures Instrument.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithMetricsRegistry sets the Prometheus registry.
func WithMetricsRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithMetricsBuckets sets the duration histogram buckets.
func WithMetricsBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithMetricsConstLabels sets constant labels for all metrics.
func WithMetricsConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// Instrumented wraps a Store with Prometheus metrics: an operation counter,
// an error counter, and a duration histogram, all labelled by operation.
type Instrumented struct {
	inner Store

	ops      *prometheus.CounterVec
	errs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   prometheus.Counter
}

// Instrument wraps inner with metrics collection.
func Instrument(inner Store, opts ...MetricsOption) *Instrumented {
	cfg := MetricsConfig{
		Namespace: "elshaddai",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)
	return &Instrumented{
		inner: inner,
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "operations_total",
			Help:        "Store operations by type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"op"}),
		errs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "errors_total",
			Help:        "Failed store operations by type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"op"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "operation_duration_seconds",
			Help:        "Store operation latency by type.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"op"}),
		events: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "change_events_total",
			Help:        "Cross-context change events delivered to watchers.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (m *Instrumented) observe(op string, start time.Time, err error) {
	m.ops.WithLabelValues(op).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errs.WithLabelValues(op).Inc()
	}
}

// Get implements Store.
func (m *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := m.inner.Get(ctx, key)
	m.observe("get", start, err)
	return value, ok, err
}

// Set implements Store.
func (m *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := m.inner.Set(ctx, key, value)
	m.observe("set", start, err)
	return err
}

// Delete implements Store.
func (m *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.inner.Delete(ctx, key)
	m.observe("delete", start, err)
	return err
}

// Watch implements Watchable by delegating to the wrapped store. When the
// wrapped store has no change feed the watch never fires and the returned
// cancel is a no-op.
func (m *Instrumented) Watch(fn func(Event)) (cancel func()) {
	return Watch(m.inner, func(ev Event) {
		m.events.Inc()
		fn(ev)
	})
}

// Close implements Store.
func (m *Instrumented) Close() error {
	return m.inner.Close()
}
