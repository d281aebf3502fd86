package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "recommendations_generated_total",
		Help:      "Roadmap recommendations persisted, by assessment framework.",
	}, []string{"assessment_type"})

	FeedbackRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "recommendation_feedback_total",
		Help:      "Advisor feedback events recorded, by action.",
	}, []string{"action"})

	WeightAdjustmentsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "weight_adjustments_applied_total",
		Help:      "Mapping weight adjustments applied by learning cycles.",
	})

	LearningCycleMappingsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "learning_cycle_mappings_skipped_total",
		Help:      "Mappings skipped during learning cycles, by reason.",
	}, []string{"reason"})

	LearningCyclesRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "learning_cycles_total",
		Help:      "Learning cycles executed, split by dry-run mode.",
	}, []string{"mode"})

	AggregationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "brightpath",
		Name:      "aggregation_runs_total",
		Help:      "Cross-framework aggregation runs completed.",
	})
)
