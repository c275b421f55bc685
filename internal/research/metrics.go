package research

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// Search outcomes.
const (
	SearchOK       = "ok"
	SearchError    = "error"
	SearchDisabled = "disabled"
)

// Metrics counts turns, searches and tolerated failures. A nil *Metrics
// records nothing.
type Metrics struct {
	turns        *prometheus.CounterVec
	searches     *prometheus.CounterVec
	degradations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "research",
			Name:      "turns_total",
			Help:      "Turns run through the research graph, by route.",
		}, []string{"route"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "research",
			Name:      "searches_total",
			Help:      "Search calls by step and outcome (ok, error, disabled).",
		}, []string{"step", "outcome"}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "research",
			Name:      "degradations_total",
			Help:      "Failures tolerated during a turn, by step.",
		}, []string{"step"}),
	}
	if reg != nil {
		reg.MustRegister(m.turns, m.searches, m.degradations)
	}
	return m
}

func (m *Metrics) observeTurn(route models.Route) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(string(route)).Inc()
}

func (m *Metrics) observeSearch(step, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) observeDegradation(step string) {
	if m == nil {
		return
	}
	m.degradations.WithLabelValues(step).Inc()
}
