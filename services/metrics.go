package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeClosed   = "closed"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	guesses      *prometheus.CounterVec
	activations  *prometheus.CounterVec
	logins       prometheus.Counter
	sessionsEnds prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bonus_hunt",
			Name:      "guesses_total",
			Help:      "Guess submissions by outcome.",
		}, []string{"outcome"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bonus_hunt",
			Name:      "hunt_activations_total",
			Help:      "Hunt activation attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bonus_hunt",
			Name:      "logins_total",
			Help:      "Completed Discord logins.",
		}),
		sessionsEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bonus_hunt",
			Name:      "sign_outs_total",
			Help:      "Sessions ended by sign out.",
		}),
	}
	reg.MustRegister(
		m.guesses, m.activations, m.logins, m.sessionsEnds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) GuessSubmitted(outcome string) {
	if m == nil {
		return
	}
	m.guesses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HuntActivation(outcome string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LoginCompleted() {
	if m == nil {
		return
	}
	m.logins.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsEnds.Inc()
}
