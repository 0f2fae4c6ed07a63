package brisc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects exploration counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	States        prometheus.Counter
	Executions    *prometheus.CounterVec
	Rounds        prometheus.Counter
	Untoggled     prometheus.Gauge
	ReplacedCells prometheus.Counter
}

// NewMetrics returns metrics registered on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		States: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brisc",
			Name:      "states_total",
			Help:      "Number of distinct register states reached.",
		}),
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brisc",
			Name:      "executions_total",
			Help:      "Number of instruction executions.",
		}, []string{"instruction"}),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brisc",
			Name:      "rounds_total",
			Help:      "Number of exploration rounds over the state frontier.",
		}),
		Untoggled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brisc",
			Name:      "untoggled_signals",
			Help:      "Number of signals that have not left their reset value.",
		}),
		ReplacedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brisc",
			Name:      "replaced_cells_total",
			Help:      "Number of cells replaced by constant sources.",
		}),
	}
	m.Registry.MustRegister(m.States, m.Executions, m.Rounds, m.Untoggled, m.ReplacedCells)
	return m
}

// WriteFile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) stateAdded() {
	if m != nil {
		m.States.Inc()
	}
}

func (m *Metrics) executed(name string) {
	if m != nil {
		m.Executions.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) round() {
	if m != nil {
		m.Rounds.Inc()
	}
}

func (m *Metrics) setUntoggled(n int) {
	if m != nil {
		m.Untoggled.Set(float64(n))
	}
}

func (m *Metrics) replaced() {
	if m != nil {
		m.ReplacedCells.Inc()
	}
}
