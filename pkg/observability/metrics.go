package observability

import (
	"context"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	PassageVisits *prometheus.CounterVec
	Jumps         *prometheus.CounterVec
	Choices       *prometheus.CounterVec
	Inputs        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PassageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bardic_passage_visits_total",
				Help: "Total number of passages entered, including jump targets",
			},
			[]string{"passage"},
		),
		Jumps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bardic_jumps_total",
				Help: "Total number of jumps between passages",
			},
			[]string{"from", "to"},
		),
		Choices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bardic_choices_total",
				Help: "Total number of choices taken",
			},
			[]string{"passage", "target"},
		),
		Inputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bardic_inputs_total",
				Help: "Total number of input values submitted",
			},
			[]string{"name"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.PassageVisits, m.Jumps, m.Choices, m.Inputs)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassageEnter: func(ctx context.Context, e *domain.PassageEvent) {
			m.PassageVisits.WithLabelValues(e.PassageID).Inc()
		},
		OnJump: func(ctx context.Context, e *domain.PassageEvent) {
			m.PassageVisits.WithLabelValues(e.PassageID).Inc()
			m.Jumps.WithLabelValues(e.From, e.PassageID).Inc()
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			m.Choices.WithLabelValues(e.PassageID, e.Target).Inc()
		},
		OnInput: func(ctx context.Context, e *domain.InputEvent) {
			for _, name := range e.Names {
				m.Inputs.WithLabelValues(name).Inc()
			}
		},
	}
}
