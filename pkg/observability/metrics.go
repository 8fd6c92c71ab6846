package observability

import (
	"strconv"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "branchwise"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	Decisions    *prometheus.CounterVec
	Revisions    *prometheus.CounterVec
	MenuAnswers  *prometheus.CounterVec
	PhaseEntries *prometheus.CounterVec
	Completions  prometheus.Counter
	Resets       prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_visits_total",
			Help:      "Total number of nodes entered.",
		}, []string{"phase", "node_id"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decisions_total",
			Help:      "Total number of decisions recorded, by node and label.",
		}, []string{"node_id", "label"}),
		Revisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "revisions_total",
			Help:      "Total number of earlier decisions changed.",
		}, []string{"node_id"}),
		MenuAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "menu_answers_total",
			Help:      "Total number of menu answers, by option and value.",
		}, []string{"option_id", "value"}),
		PhaseEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "phase_entries_total",
			Help:      "Total number of phases entered.",
		}, []string{"phase"}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "completions_total",
			Help:      "Total number of flows completed.",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resets_total",
			Help:      "Total number of flows reset.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.NodeVisits,
			m.Decisions,
			m.Revisions,
			m.MenuAnswers,
			m.PhaseEntries,
			m.Completions,
			m.Resets,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record every event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(e *domain.FlowEvent) {
			m.NodeVisits.WithLabelValues(strconv.Itoa(e.Phase), e.NodeID).Inc()
		},
		OnDecision: func(e *domain.FlowEvent) {
			m.Decisions.WithLabelValues(e.NodeID, e.Label).Inc()
		},
		OnRevision: func(e *domain.FlowEvent) {
			m.Revisions.WithLabelValues(e.NodeID).Inc()
		},
		OnMenuAnswer: func(e *domain.FlowEvent) {
			value := "false"
			if e.Value != nil && *e.Value {
				value = "true"
			}
			m.MenuAnswers.WithLabelValues(e.Label, value).Inc()
		},
		OnPhaseEnter: func(e *domain.FlowEvent) {
			m.PhaseEntries.WithLabelValues(strconv.Itoa(e.Phase)).Inc()
		},
		OnComplete: func(*domain.FlowEvent) {
			m.Completions.Inc()
		},
		OnReset: func(*domain.FlowEvent) {
			m.Resets.Inc()
		},
	}
}
