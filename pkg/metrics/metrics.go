// Package metrics exports store, delivery and host loop metrics to
// Prometheus.
//
// A Collector implements livestore.Recorder (and so observable.Recorder)
// and host.Recorder; pass it to livestore.WithRecorder and host.Config.
//
//	c := metrics.New(metrics.WithNamespace("myapp"))
//	h := host.New(&host.Config{Recorder: c})
//	store, _ := livestore.New(doc, livestore.WithScheduler(h), livestore.WithRecorder(c))
//	http.Handle("/metrics", c.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
)

// MetricsConfig configures a Collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "livestore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use. When it is also a
	// prometheus.Gatherer, Handler serves it.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "livestore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records livestore metrics.
type Collector struct {
	registry prometheus.Registerer

	subscriptionsActive prometheus.Gauge
	subscriptionsTotal  prometheus.Counter
	batchesTotal        prometheus.Counter
	changesTotal        prometheus.Counter
	deliveryDuration    prometheus.Histogram
	revisionsTotal      prometheus.Counter
	tasksTotal          *prometheus.CounterVec
	taskDuration        prometheus.Histogram
	tasksDropped        prometheus.Counter
	rendersTotal        prometheus.Counter
	renderDuration      prometheus.Histogram
}

var (
	_ livestore.Recorder = (*Collector)(nil)
	_ host.Recorder      = (*Collector)(nil)
)

// New creates a Collector and registers its metrics. It panics if they
// are already registered with the registry, like promauto.
//
// Metrics:
//   - livestore_subscriptions_active: Gauge of open subscriptions
//   - livestore_subscriptions_total: Counter of subscriptions opened
//   - livestore_batches_delivered_total: Counter of batches that reached a subscriber
//   - livestore_changes_delivered_total: Counter of change records in those batches
//   - livestore_batch_delivery_seconds: Histogram of batch delivery duration
//   - livestore_revisions_total: Counter of binding revision bumps
//   - livestore_host_tasks_total: Counter of host tasks by status
//   - livestore_host_task_duration_seconds: Histogram of host task duration
//   - livestore_host_tasks_dropped_total: Counter of tasks dropped on a full queue
//   - livestore_renders_total: Counter of component renders
//   - livestore_render_duration_seconds: Histogram of render duration
func New(opts ...Option) *Collector {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		})
	}

	return &Collector{
		registry: config.Registry,

		subscriptionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions_active",
			Help:        "Number of open store subscriptions",
			ConstLabels: config.ConstLabels,
		}),
		subscriptionsTotal: counter("subscriptions_total", "Total number of store subscriptions opened"),
		batchesTotal:       counter("batches_delivered_total", "Total number of change batches delivered to at least one subscriber"),
		changesTotal:       counter("changes_delivered_total", "Total number of change records in delivered batches"),
		deliveryDuration:   histogram("batch_delivery_seconds", "Batch delivery duration in seconds"),
		revisionsTotal:     counter("revisions_total", "Total number of binding revision bumps"),

		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_tasks_total",
			Help:        "Total number of host tasks processed",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
		taskDuration:   histogram("host_task_duration_seconds", "Host task duration in seconds, including effects and renders"),
		tasksDropped:   counter("host_tasks_dropped_total", "Total number of tasks dropped on a full queue"),
		rendersTotal:   counter("renders_total", "Total number of component renders"),
		renderDuration: histogram("render_duration_seconds", "Component render duration in seconds"),
	}
}

// SubscriptionOpened implements observable.Recorder.
func (c *Collector) SubscriptionOpened() {
	c.subscriptionsActive.Inc()
	c.subscriptionsTotal.Inc()
}

// SubscriptionClosed implements observable.Recorder.
func (c *Collector) SubscriptionClosed() {
	c.subscriptionsActive.Dec()
}

// BatchDelivered implements observable.Recorder. Batches no subscriber
// matched are not counted.
func (c *Collector) BatchDelivered(changes, subscribers int, elapsed time.Duration) {
	if subscribers == 0 {
		return
	}
	c.batchesTotal.Inc()
	c.changesTotal.Add(float64(changes))
	c.deliveryDuration.Observe(elapsed.Seconds())
}

// RevisionBumped implements livestore.Recorder.
func (c *Collector) RevisionBumped() {
	c.revisionsTotal.Inc()
}

// TaskCompleted implements host.Recorder.
func (c *Collector) TaskCompleted(elapsed time.Duration, panicked bool) {
	status := "ok"
	if panicked {
		status = "panic"
	}
	c.tasksTotal.WithLabelValues(status).Inc()
	c.taskDuration.Observe(elapsed.Seconds())
}

// TaskDropped implements host.Recorder.
func (c *Collector) TaskDropped() {
	c.tasksDropped.Inc()
}

// ComponentRendered implements host.Recorder.
func (c *Collector) ComponentRendered(elapsed time.Duration) {
	c.rendersTotal.Inc()
	c.renderDuration.Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
// It falls back to the default gatherer when the registry cannot gather.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
