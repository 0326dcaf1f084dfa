// Package metrics implements ports.Metrics on Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kiln"

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// Prometheus records engine activity in its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	passes             *prometheus.HistogramVec
	units              *prometheus.CounterVec
	unitDuration       *prometheus.HistogramVec
	running            prometheus.Gauge
}

// New creates the collectors and registers them in a fresh registry.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Count of build invocations by trigger and final phase",
		}, []string{"trigger", "phase"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of build invocations",
			Buckets:   durationBuckets,
		}, []string{"trigger"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_passes",
			Help:      "Number of passes run per invocation",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}, []string{"trigger"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "results_total",
			Help:      "Count of build unit outcomes",
		}, []string{"builder", "outcome"}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "duration_seconds",
			Help:      "Latency distribution of build units",
			Buckets:   durationBuckets,
		}, []string{"builder"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "running",
			Help:      "Units currently holding a scheduling rule",
		}),
	}
	p.registry.MustRegister(
		p.invocations,
		p.invocationDuration,
		p.passes,
		p.units,
		p.unitDuration,
		p.running,
	)
	return p
}

// InvocationStarted counts a new invocation as running.
func (p *Prometheus) InvocationStarted(trigger string) {
	p.invocations.With(prometheus.Labels{"trigger": trigger, "phase": "started"}).Inc()
}

// InvocationFinished records the outcome of an invocation.
func (p *Prometheus) InvocationFinished(trigger, phase string, passes int, elapsed time.Duration) {
	p.invocations.With(prometheus.Labels{"trigger": trigger, "phase": phase}).Inc()
	p.invocationDuration.With(prometheus.Labels{"trigger": trigger}).Observe(elapsed.Seconds())
	p.passes.With(prometheus.Labels{"trigger": trigger}).Observe(float64(passes))
}

// UnitFinished records one build unit.
func (p *Prometheus) UnitFinished(builder, outcome string, elapsed time.Duration) {
	p.units.With(prometheus.Labels{"builder": builder, "outcome": outcome}).Inc()
	p.unitDuration.With(prometheus.Labels{"builder": builder}).Observe(elapsed.Seconds())
}

// SetRunning reports the number of running units.
func (p *Prometheus) SetRunning(n int) {
	p.running.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors live in.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
