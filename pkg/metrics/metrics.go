// Package metrics exports reactive runtime activity as Prometheus metrics.
//
// Metrics collected (namespace "msig" by default):
//   - msig_effect_runs_total: Counter of effect executions
//   - msig_signal_writes_total: Counter of signal writes by changed="true"|"false"
//   - msig_cascade_aborts_total: Counter of effect runs skipped by the depth bound
//   - msig_scope_disposals_total: Counter of disposed scopes
//   - msig_scope_disposed_effects_total: Counter of effects released by disposal
//   - msig_resource_fetches_total: Counter of resource fetches by outcome
//   - msig_resource_fetch_duration_seconds: Histogram of fetch duration by outcome
//   - msig_live_subscribers: Gauge of live store subscribers by store
//   - msig_runtime_cells, msig_runtime_effects, msig_runtime_scopes: registry size
//     (after Watch)
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.New(metrics.WithRegistry(reg))
//	rt := reactive.NewRuntime(reactive.WithObserver(collector))
//	collector.Watch(rt)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/msig-dev/msig/pkg/reactive"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "msig").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for fetch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "msig",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records runtime events. It implements reactive.Observer.
type Collector struct {
	config  Config
	factory promauto.Factory

	effectRuns       prometheus.Counter
	signalWrites     *prometheus.CounterVec
	cascadeAborts    prometheus.Counter
	scopeDisposals   prometheus.Counter
	disposedEffects  prometheus.Counter
	resourceFetches  *prometheus.CounterVec
	resourceDuration *prometheus.HistogramVec
	liveSubscribers  *prometheus.GaugeVec
}

var _ reactive.Observer = (*Collector)(nil)

// New registers the collector's metrics and returns it.
// Registering twice on the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
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

	return &Collector{
		config:  config,
		factory: factory,

		effectRuns:      counter("effect_runs_total", "Total number of effect executions"),
		cascadeAborts:   counter("cascade_aborts_total", "Effect runs skipped because the cascade depth bound was exceeded"),
		scopeDisposals:  counter("scope_disposals_total", "Total number of disposed scopes"),
		disposedEffects: counter("scope_disposed_effects_total", "Total number of effects released by scope disposal"),

		signalWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total signal writes, by whether the value changed",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		resourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resource_fetches_total",
			Help:        "Total resource fetches by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		resourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resource_fetch_duration_seconds",
			Help:        "Resource fetch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		liveSubscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_subscribers",
			Help:        "Number of connected live store subscribers",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),
	}
}

// EffectRun implements reactive.Observer.
func (c *Collector) EffectRun() {
	c.effectRuns.Inc()
}

// SignalWrite implements reactive.Observer.
func (c *Collector) SignalWrite(changed bool) {
	c.signalWrites.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// CascadeAborted implements reactive.Observer.
func (c *Collector) CascadeAborted() {
	c.cascadeAborts.Inc()
}

// ScopeDisposed implements reactive.Observer.
func (c *Collector) ScopeDisposed(effects int) {
	c.scopeDisposals.Inc()
	c.disposedEffects.Add(float64(effects))
}

// ResourceFetch implements reactive.Observer.
func (c *Collector) ResourceFetch(outcome string, d time.Duration) {
	c.resourceFetches.WithLabelValues(outcome).Inc()
	c.resourceDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Connected records a new live subscriber of store.
func (c *Collector) Connected(store string) {
	c.liveSubscribers.WithLabelValues(store).Inc()
}

// Disconnected records a live subscriber of store going away.
func (c *Collector) Disconnected(store string) {
	c.liveSubscribers.WithLabelValues(store).Dec()
}

// Watch exports the size of rt's registry as gauges.
// Call it at most once per collector.
func (c *Collector) Watch(rt *reactive.Runtime) {
	gauge := func(name, help string, read func(reactive.Stats) int) {
		c.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: c.config.ConstLabels,
		}, func() float64 {
			return float64(read(rt.Stats()))
		})
	}
	gauge("runtime_cells", "Number of signals with at least one subscriber", func(s reactive.Stats) int { return s.Cells })
	gauge("runtime_effects", "Number of live effects", func(s reactive.Stats) int { return s.Effects })
	gauge("runtime_scopes", "Number of live scopes, including the global scope", func(s reactive.Stats) int { return s.Scopes })
}
