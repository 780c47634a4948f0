package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_processed_total",
			Help: "Total conversational turns processed, by outcome",
		},
		[]string{"outcome"},
	)

	Clarifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_clarifications_total",
			Help: "Clarification turns returned, by reason",
		},
		[]string{"reason"},
	)

	PendingActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_pending_actions_total",
			Help: "Pending action slot transitions",
		},
		[]string{"transition"}, // staged, confirmed, cancelled, superseded, expired
	)

	Escalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_support_escalations_total",
			Help: "Turns that offered a human-support escalation",
		},
	)

	CollaboratorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_collaborator_errors_total",
			Help: "External collaborator call failures, by service",
		},
		[]string{"service"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_turn_duration_seconds",
			Help: "Duration of a full orchestrator turn in seconds",
		},
		[]string{"outcome"},
	)
)
