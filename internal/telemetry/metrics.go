package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered against the default registry, the same one
// cmd/automata-runner exposes via promhttp.Handler(), matching the
// teacher's cmd/automata-orchestrator wiring.
var (
	TaskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_task_transitions_total",
		Help: "Count of task reconciliation state transitions.",
	}, []string{"to_state"})

	StepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_step_outcomes_total",
		Help: "Count of step executions by type and outcome.",
	}, []string{"step_type", "outcome"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automata_step_duration_seconds",
		Help:    "Step execution duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step_type"})

	ProducerFlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automata_eventbus_flush_failures_total",
		Help: "Count of event bus batch sends that failed and were requeued.",
	})

	WorkflowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automata_workflow_outcomes_total",
		Help: "Count of completed workflow runs by terminal status.",
	}, []string{"status"})
)
