package probe

import (
	"context"
	"testing"

	"github.com/flowforge/automata/internal/domain"
)

type fakeEmitter struct {
	events []domain.Event
}

func (e *fakeEmitter) Emit(evt domain.Event) error {
	e.events = append(e.events, evt)
	return nil
}

type nullLogger struct{}

func (nullLogger) Warn(msg string, args ...any)  {}
func (nullLogger) Debug(msg string, args ...any) {}

func TestFirePhase_OnlyMatchingPhaseAndAction(t *testing.T) {
	emitter := &fakeEmitter{}
	e := New(emitter, nullLogger{})

	fired := 0
	e.Register(&Probe{
		ID:      "p1",
		Name:    "p1",
		Phase:   domain.PhaseBeforeAction,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			fired++
			return &domain.ProbeResult{Values: map[string]any{"ok": true}, Severity: domain.SeverityInfo}, nil
		},
	})
	e.Register(&Probe{
		ID:      "p2",
		Name:    "p2",
		Phase:   domain.PhaseAfterAction,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			t.Fatal("p2 should not fire for BeforeAction")
			return nil, nil
		},
	})

	outcomes := e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{SessionID: "s1"})
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if fired != 1 {
		t.Errorf("expected p1 to fire once, fired=%d", fired)
	}
	if len(emitter.events) != 1 {
		t.Errorf("expected 1 emitted event, got %d", len(emitter.events))
	}
}

func TestFirePhase_DisabledProbeSkipped(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	e.Register(&Probe{
		ID:    "p1",
		Phase: domain.PhaseBeforeAction,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			t.Fatal("disabled probe should not fire")
			return nil, nil
		},
	})

	outcomes := e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{})
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestFirePhase_ActionTypeFilter(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	fired := false
	e.Register(&Probe{
		ID:          "p1",
		Phase:       domain.PhaseBeforeAction,
		Enabled:     true,
		ActionTypes: map[string]struct{}{"click": {}},
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			fired = true
			return &domain.ProbeResult{Values: map[string]any{}}, nil
		},
	})

	e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{ActionType: "navigate"})
	if fired {
		t.Fatal("probe should not fire for non-matching action type")
	}

	e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{ActionType: "click"})
	if !fired {
		t.Fatal("probe should fire for matching action type")
	}
}

func TestFirePhase_AlertConditionEscalatesSeverity(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	e.Register(NewStepLatencyProbe(100))

	outcomes := e.FirePhase(context.Background(), domain.PhaseAfterAction, &Context{
		Extra: map[string]any{"durationMs": 500.0},
	})
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Result.Severity != domain.SeverityWarn {
		t.Errorf("expected severity warn, got %s", outcomes[0].Result.Severity)
	}
}

func TestFirePhase_MeasureErrorDoesNotEmit(t *testing.T) {
	emitter := &fakeEmitter{}
	e := New(emitter, nullLogger{})
	e.Register(&Probe{
		ID:      "p1",
		Phase:   domain.PhaseBeforeAction,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			return nil, context.DeadlineExceeded
		},
	})

	outcomes := e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{})
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("expected an error outcome, got %+v", outcomes)
	}
	if len(emitter.events) != 0 {
		t.Errorf("expected no events emitted on measure error")
	}
}

func TestRegister_ReplacesExistingByID(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	e.Register(&Probe{ID: "p1", Phase: domain.PhaseBeforeAction, Enabled: true, Priority: 1,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			return &domain.ProbeResult{Values: map[string]any{"v": 1}}, nil
		}})
	e.Register(&Probe{ID: "p1", Phase: domain.PhaseBeforeAction, Enabled: true, Priority: 2,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			return &domain.ProbeResult{Values: map[string]any{"v": 2}}, nil
		}})

	if len(e.snapshot()) != 1 {
		t.Fatalf("expected registry to hold exactly 1 probe after replace, got %d", len(e.snapshot()))
	}
	outcomes := e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{})
	if outcomes[0].Result.Values["v"] != 2 {
		t.Errorf("expected replaced probe's measure to run, got %v", outcomes[0].Result.Values["v"])
	}
}

func TestPriorityOrdering(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	var order []string
	mk := func(id string, priority int) *Probe {
		return &Probe{ID: id, Phase: domain.PhaseBeforeAction, Enabled: true, Priority: priority,
			Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
				order = append(order, id)
				return &domain.ProbeResult{Values: map[string]any{}}, nil
			}}
	}
	e.Register(mk("low", 1))
	e.Register(mk("high", 10))
	e.Register(mk("mid", 5))

	e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{})
	if len(order) != 3 || order[0] != "low" || order[1] != "mid" || order[2] != "high" {
		t.Errorf("expected priority-ascending order, got %v", order)
	}
}

func TestFirePhase_ContinuousProbeFiresAlongsideEveryPhase(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	fired := 0
	e.Register(&Probe{
		ID:      "cont",
		Phase:   domain.PhaseContinuous,
		Enabled: true,
		Measure: func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error) {
			fired++
			return &domain.ProbeResult{Values: map[string]any{}}, nil
		},
	})

	e.FirePhase(context.Background(), domain.PhaseBeforeAction, &Context{})
	e.FirePhase(context.Background(), domain.PhaseAfterAction, &Context{})
	e.FirePhase(context.Background(), domain.PhaseOnError, &Context{})
	if fired != 3 {
		t.Errorf("expected continuous probe to fire on every phase call, fired=%d", fired)
	}
}

func TestTeardownAll(t *testing.T) {
	e := New(&fakeEmitter{}, nullLogger{})
	torn := false
	e.Register(&Probe{
		ID:       "p1",
		Phase:    domain.PhaseBeforeAction,
		Enabled:  true,
		Teardown: func(ctx context.Context) { torn = true },
	})

	e.TeardownAll(context.Background())
	if !torn {
		t.Error("expected teardown to be called")
	}
}

func TestEvaluateSeverity_RegexOperator(t *testing.T) {
	result := &domain.ProbeResult{Values: map[string]any{"message": "connection refused"}}
	conds := []domain.AlertCondition{
		{Field: "message", Operator: domain.OpRegex, Threshold: "refused$", Severity: domain.SeverityCritical},
	}
	got := EvaluateSeverity(domain.SeverityInfo, result, conds)
	if got != domain.SeverityCritical {
		t.Errorf("expected critical, got %s", got)
	}
}
