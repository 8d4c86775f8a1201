package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/probe"
)

func TestDriveContinuousProbes_FiresUntilCancelled(t *testing.T) {
	var fireCount atomic.Int32
	e := probe.New(nil, nullLoggerForTest{})
	e.Register(&probe.Probe{
		ID:      "cont",
		Phase:   domain.PhaseContinuous,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *probe.Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			fireCount.Add(1)
			return &domain.ProbeResult{Values: map[string]any{}}, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	DriveContinuousProbes(ctx, e, 10*time.Millisecond, &probe.Context{})

	if fireCount.Load() < 2 {
		t.Fatalf("expected at least 2 fires, got %d", fireCount.Load())
	}
}

type nullLoggerForTest struct{}

func (nullLoggerForTest) Warn(msg string, args ...any)  {}
func (nullLoggerForTest) Debug(msg string, args ...any) {}
