package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavely_vote_transitions_total",
			Help: "Vote state transitions by target type and transition (create, toggle_off, switch)",
		},
		[]string{"target_type", "transition"},
	)

	voteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wavely_vote_conflicts_total",
			Help: "Vote attempts aborted by a concurrent modification",
		},
	)

	deletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavely_deletions_total",
			Help: "Deletions by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	mediaReleaseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wavely_media_release_failures_total",
			Help: "Media objects that could not be released after a hard delete",
		},
	)

	classifierDegradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavely_classifier_degradations_total",
			Help: "Classifier calls that degraded to a zero score",
		},
		[]string{"category", "reason"},
	)

	moderationVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavely_moderation_verdicts_total",
			Help: "Toxicity verdicts by status",
		},
		[]string{"status"},
	)
)
