// Package metrics exposes the operator's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomop/internal/audit"
	"roomop/internal/diff"
	"roomop/internal/events"
	"roomop/internal/reconciler"
)

// Metrics owns the operator's collector registry. It implements
// reconciler.MetricsRecorder.
type Metrics struct {
	registry *prometheus.Registry

	cycles     *prometheus.CounterVec
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates and registers the operator collectors. The broadcaster, when
// non-nil, contributes live subscriber and drop gauges.
func New(broadcaster *events.Broadcaster) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomop_reconcile_cycles_total",
			Help: "Finished reconcile cycles by room and outcome state.",
		}, []string{"room", "outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomop_reconcile_operations_total",
			Help: "Reconcile operations by type and outcome.",
		}, []string{"type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomop_reconcile_duration_seconds",
			Help:    "Wall-clock duration of reconcile cycles.",
			Buckets: prometheus.DefBuckets,
		}, []string{"room"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles,
		m.operations,
		m.duration,
	)

	if broadcaster != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "roomop_event_subscribers",
				Help: "Currently connected event stream subscribers.",
			}, func() float64 {
				return float64(broadcaster.SubscriberCount())
			}),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "roomop_events_dropped_total",
				Help: "Events discarded by subscriber queue backpressure.",
			}, func() float64 {
				return float64(broadcaster.Dropped())
			}),
		)
	}

	return m
}

// ObserveCycle implements reconciler.MetricsRecorder.
func (m *Metrics) ObserveCycle(roomID string, state reconciler.CycleState, duration time.Duration) {
	m.cycles.WithLabelValues(roomID, string(state)).Inc()
	m.duration.WithLabelValues(roomID).Observe(duration.Seconds())
}

// ObserveOperation implements reconciler.MetricsRecorder.
func (m *Metrics) ObserveOperation(opType diff.OperationType, outcome audit.Outcome) {
	m.operations.WithLabelValues(string(opType), string(outcome)).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
