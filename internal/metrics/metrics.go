// Package metrics holds the Prometheus collectors for the schema graph engine.
//
// All recording methods are safe on a nil *Metrics so components can be used
// without instrumentation (tests, one-shot CLI runs).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "schemagraph"

// Lookup operation labels.
const (
	OpFetchTemplate   = "fetch_template"
	OpFindByClass     = "find_templates_by_class"
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
	CacheKindTemplate = "template"
	CacheKindClass    = "class"
)

// Metrics groups every collector the engine records to.
type Metrics struct {
	Lookups             *prometheus.CounterVec
	LookupDuration      *prometheus.HistogramVec
	CacheRequests       *prometheus.CounterVec
	PropertyFailures    prometheus.Counter
	Explorations        *prometheus.CounterVec
	TemplatesDiscovered prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "requests_total",
				Help:      "Remote schema lookups by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		LookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "duration_seconds",
				Help:      "Remote schema lookup latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "requests_total",
				Help:      "Template cache lookups by kind and result (hit/miss)",
			},
			[]string{"kind", "result"},
		),
		PropertyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "property_failures_total",
				Help:      "Property resolutions degraded to no neighbor after a lookup failure",
			},
		),
		Explorations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "explorations_total",
				Help:      "Schema graph explorations by outcome",
			},
			[]string{"outcome"},
		),
		TemplatesDiscovered: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "templates_discovered",
				Help:      "Distinct templates discovered per exploration",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Lookups,
			m.LookupDuration,
			m.CacheRequests,
			m.PropertyFailures,
			m.Explorations,
			m.TemplatesDiscovered,
		)
	}
	return m
}

// ObserveLookup records one remote lookup that started at start.
func (m *Metrics) ObserveLookup(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(op, outcome).Inc()
	m.LookupDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(kind, result).Inc()
}

// PropertyFailed counts a property that yielded no neighbor because of an error.
func (m *Metrics) PropertyFailed() {
	if m == nil {
		return
	}
	m.PropertyFailures.Inc()
}

// ObserveExploration records the outcome of one exploration and, on success,
// how many distinct templates it found.
func (m *Metrics) ObserveExploration(err error, templates int) {
	if m == nil {
		return
	}
	if err != nil {
		m.Explorations.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.Explorations.WithLabelValues(OutcomeOK).Inc()
	m.TemplatesDiscovered.Observe(float64(templates))
}
