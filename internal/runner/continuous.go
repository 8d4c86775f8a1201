package runner

import (
	"context"
	"time"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/probe"
)

// DriveContinuousProbes fires the Continuous phase on every tick until
// ctx is cancelled. The embedder itself has no internal timer — this is
// a caller-level concern, matching the fact that the engine never
// schedules idle probes on its own.
func DriveContinuousProbes(ctx context.Context, embedder *probe.Embedder, interval time.Duration, pctx *probe.Context) {
	if embedder == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			embedder.FirePhase(ctx, domain.PhaseContinuous, pctx)
		}
	}
}
