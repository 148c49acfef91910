package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality. Label values are state names, attack
// names, hook names and removal reasons, never actor ids.
type Metrics struct {
	registry *prometheus.Registry
	factory  promauto.Factory

	tickDuration     prometheus.Histogram
	activeSessions   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	sessionsRemoved  *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	damageDealt      *prometheus.CounterVec
	hits             *prometheus.CounterVec
	hookPanics       *prometheus.CounterVec

	beamsOnce    sync.Once
	eventLogOnce sync.Once
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		factory:  f,

		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "slasher_tick_duration_seconds",
			Help:    "Time spent in one engine tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "slasher_sessions_active",
			Help: "Currently live item sessions",
		}),
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "slasher_sessions_created_total",
			Help: "Item sessions created",
		}),
		sessionsRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slasher_sessions_removed_total",
			Help: "Item sessions removed",
		}, []string{"reason"}),
		stateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slasher_state_transitions_total",
			Help: "Weapon state transitions by target state",
		}, []string{"to"}),
		damageDealt: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slasher_damage_dealt_total",
			Help: "Damage dealt by attack",
		}, []string{"attack"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slasher_hits_total",
			Help: "Landed hits by attack",
		}, []string{"attack"}),
		hookPanics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slasher_hook_panics_total",
			Help: "Handler hooks that panicked and were recovered",
		}, []string{"hook"}),
	}
}

// Registry is the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTick records one tick's duration. It matches sim.Handlers.AfterTick.
func (m *Metrics) ObserveTick(took time.Duration) {
	m.tickDuration.Observe(took.Seconds())
}

// WatchBeams exports the live beam count read from fn at scrape time. Only
// the first call registers.
func (m *Metrics) WatchBeams(fn func() int) {
	m.beamsOnce.Do(func() {
		m.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "slasher_beams_active",
			Help: "Slash beams currently in flight",
		}, func() float64 { return float64(fn()) })
	})
}

// WatchEventLog exports the event log counters.
func (m *Metrics) WatchEventLog(el *EventLog) {
	m.eventLogOnce.Do(func() {
		m.factory.NewCounterFunc(prometheus.CounterOpts{
			Name: "slasher_event_log_total",
			Help: "Combat events accepted by the log",
		}, func() float64 { return float64(el.GetTotalCount()) })
		m.factory.NewCounterFunc(prometheus.CounterOpts{
			Name: "slasher_event_log_dropped_total",
			Help: "Combat events dropped by rate limiting or a full buffer",
		}, func() float64 { return float64(el.GetDroppedCount()) })
	})
}
