package probe

import (
	"context"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

// NewStepLatencyProbe returns a reference AfterAction probe that reports
// how long the just-completed action took, as supplied by the caller via
// pctx.Extra["durationMs"].
func NewStepLatencyProbe(thresholdMs float64) *Probe {
	return &Probe{
		ID:      "builtin.step-latency",
		Name:    "step-latency",
		Phase:   domain.PhaseAfterAction,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			durationMs, _ := pctx.Extra["durationMs"].(float64)
			return &domain.ProbeResult{
				InstrumentID: "builtin.step-latency",
				Timestamp:    time.Now().UnixMilli(),
				Values:       map[string]any{"durationMs": durationMs},
				Severity:     domain.SeverityInfo,
			}, nil
		},
		AlertConditions: []domain.AlertCondition{
			{Field: "durationMs", Operator: domain.OpGT, Threshold: thresholdMs, Severity: domain.SeverityWarn},
		},
	}
}

// NewErrorRateProbe returns a reference OnError probe that tracks a
// running count of errors observed for the session, escalating severity
// once the count crosses threshold.
func NewErrorRateProbe(threshold int) *Probe {
	counts := make(map[string]int)

	return &Probe{
		ID:      "builtin.error-rate",
		Name:    "error-rate",
		Phase:   domain.PhaseOnError,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			counts[pctx.SessionID]++
			return &domain.ProbeResult{
				InstrumentID: "builtin.error-rate",
				Timestamp:    time.Now().UnixMilli(),
				Values:       map[string]any{"count": float64(counts[pctx.SessionID])},
				Severity:     domain.SeverityInfo,
			}, nil
		},
		AlertConditions: []domain.AlertCondition{
			{Field: "count", Operator: domain.OpGT, Threshold: float64(threshold), Severity: domain.SeverityCritical},
		},
	}
}
