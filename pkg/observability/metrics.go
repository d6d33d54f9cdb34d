package observability

import (
	"context"

	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the survey counters.
type Metrics struct {
	FormEnters    *prometheus.CounterVec
	Blocked       *prometheus.CounterVec
	RouteFailures *prometheus.CounterVec
	Completions   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FormEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveyflow_form_enter_total",
				Help: "Total number of times a form became current",
			},
			[]string{"form_id"},
		),
		Blocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveyflow_advance_blocked_total",
				Help: "Advance attempts refused for missing required answers",
			},
			[]string{"form_id"},
		),
		RouteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveyflow_route_failures_total",
				Help: "Conditional transitions that matched no case and had no fallback",
			},
			[]string{"form_id"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveyflow_completions_total",
				Help: "Sessions that reached a terminal form",
			},
			[]string{"definition_id"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.FormEnters, m.Blocked, m.RouteFailures, m.Completions)
	}
	return m
}

// Hooks returns lifecycle hooks that update the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFormEnter: func(_ context.Context, e *domain.FormEvent) {
			m.FormEnters.WithLabelValues(e.FormID).Inc()
		},
		OnBlocked: func(_ context.Context, e *domain.BlockedEvent) {
			m.Blocked.WithLabelValues(e.FormID).Inc()
		},
		OnNoRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.RouteFailures.WithLabelValues(e.FormID).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.CompletionEvent) {
			m.Completions.WithLabelValues(e.DefinitionID).Inc()
		},
	}
}
