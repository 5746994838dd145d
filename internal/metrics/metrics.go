package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the scheduler collectors
type Metrics struct {
	CardsShown   prometheus.Counter
	Answers      *prometheus.CounterVec
	TickFailures *prometheus.CounterVec
	Paused       prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CardsShown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wordflash",
			Name:      "cards_shown_total",
			Help:      "Number of cards handed to the presenter.",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordflash",
			Name:      "answers_total",
			Help:      "Graded answers by outcome.",
		}, []string{"outcome"}),
		TickFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordflash",
			Name:      "tick_failures_total",
			Help:      "Scheduler ticks that could not show a card.",
		}, []string{"stage"}),
		Paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wordflash",
			Name:      "paused",
			Help:      "1 while card pop-ups are suspended.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.CardsShown, m.Answers, m.TickFailures, m.Paused)
	}
	return m
}

// ObserveAnswer counts a graded answer
func (m *Metrics) ObserveAnswer(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.Answers.WithLabelValues(outcome).Inc()
}

// SetPaused mirrors the aggregate pause flag
func (m *Metrics) SetPaused(paused bool) {
	if paused {
		m.Paused.Set(1)
		return
	}
	m.Paused.Set(0)
}
