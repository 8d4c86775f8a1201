// Package probe implements the probe embedder: a registry of instruments
// that fire at declared lifecycle phases, evaluate alert conditions
// against their measurements, and report results as domain.Events.
//
// The registry is copy-on-write, grounded on the teacher's RWMutex-guarded
// map registry (internal/steps/registry.go), generalized from a map
// keyed by step type to a slice replaced wholesale on every mutation so
// FirePhase can iterate a snapshot without holding a lock across
// potentially slow measure calls.
package probe

import (
	"context"
	"sync"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

// MeasureFunc performs one measurement. prev is the probe's previous
// result (nil on first fire), useful for delta computations.
type MeasureFunc func(ctx context.Context, pctx *Context, prev *domain.ProbeResult) (*domain.ProbeResult, error)

// TeardownFunc releases any resource a probe's measure function held.
type TeardownFunc func(ctx context.Context)

// Probe is one registered instrument.
type Probe struct {
	ID       string
	Name     string
	Phase    domain.Phase
	Priority int // lower fires first within a phase

	// ActionTypes restricts which action types this probe fires for;
	// empty means it fires for every action.
	ActionTypes map[string]struct{}

	Enabled bool

	Measure         MeasureFunc
	Teardown        TeardownFunc
	AlertConditions []domain.AlertCondition
}

func (p *Probe) appliesTo(actionType string) bool {
	if len(p.ActionTypes) == 0 {
		return true
	}
	_, ok := p.ActionTypes[actionType]
	return ok
}

// Context is the firing context passed to a probe's measure function.
type Context struct {
	SessionID  string
	ActionType string
	Extra      map[string]any
}

// Outcome pairs a fired probe with what it produced.
type Outcome struct {
	Probe  *Probe
	Result *domain.ProbeResult
	Err    error
}

// Embedder owns the probe registry and the single-slot previous-result
// cache used for delta measurements.
type Embedder struct {
	mu     sync.RWMutex
	probes []*Probe

	resultsMu sync.Mutex
	previous  map[string]*domain.ProbeResult

	logger  Logger
	emitter Emitter
}

// Logger is the minimal logging surface the embedder needs — satisfied by
// *slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Emitter is the minimal surface onto the event bus producer — satisfied
// by *eventbus.Producer. Kept as an interface here so probe has no
// import-time dependency on eventbus, avoiding a cycle risk as both
// packages grow.
type Emitter interface {
	Emit(e domain.Event) error
}

// New creates an Embedder that reports fired probes to emitter.
func New(emitter Emitter, logger Logger) *Embedder {
	return &Embedder{
		previous: make(map[string]*domain.ProbeResult),
		logger:   logger,
		emitter:  emitter,
	}
}

// Register adds or replaces a probe, copy-on-write: readers iterating an
// older snapshot are unaffected.
func (e *Embedder) Register(p *Probe) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]*Probe, 0, len(e.probes)+1)
	for _, existing := range e.probes {
		if existing.ID != p.ID {
			next = append(next, existing)
		}
	}
	next = append(next, p)
	e.probes = next
}

// Unregister removes a probe by ID.
func (e *Embedder) Unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]*Probe, 0, len(e.probes))
	for _, p := range e.probes {
		if p.ID != id {
			next = append(next, p)
		}
	}
	e.probes = next
}

func (e *Embedder) setEnabled(id string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]*Probe, len(e.probes))
	for i, p := range e.probes {
		cp := *p
		if cp.ID == id {
			cp.Enabled = enabled
		}
		next[i] = &cp
	}
	e.probes = next
}

// Enable flips a probe's Enabled flag on.
func (e *Embedder) Enable(id string) { e.setEnabled(id, true) }

// Disable flips a probe's Enabled flag off; FirePhase skips disabled probes.
func (e *Embedder) Disable(id string) { e.setEnabled(id, false) }

func (e *Embedder) snapshot() []*Probe {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.probes
}

// FirePhase runs every enabled, action-matching probe registered for
// phase — plus every enabled, action-matching Continuous probe, which
// fires alongside every phase — lowest Priority first, and reports each
// via Emitter before returning the outcomes to the caller.
func (e *Embedder) FirePhase(ctx context.Context, phase domain.Phase, pctx *Context) []Outcome {
	snapshot := e.snapshot()

	eligible := make([]*Probe, 0, len(snapshot))
	for _, p := range snapshot {
		if !p.Enabled {
			continue
		}
		if p.Phase != phase && p.Phase != domain.PhaseContinuous {
			continue
		}
		if !p.appliesTo(pctx.ActionType) {
			continue
		}
		eligible = append(eligible, p)
	}
	sortByPriorityAsc(eligible)

	outcomes := make([]Outcome, 0, len(eligible))
	for _, p := range eligible {
		outcomes = append(outcomes, e.fireOne(ctx, p, pctx))
	}
	return outcomes
}

func (e *Embedder) fireOne(ctx context.Context, p *Probe, pctx *Context) Outcome {
	prev := e.getPrevious(p.ID)

	result, err := p.Measure(ctx, pctx, prev)
	if err != nil {
		e.logger.Warn("probe measure failed", "probe", p.ID, "error", err)
		return Outcome{Probe: p, Err: err}
	}

	result.Severity = EvaluateSeverity(result.Severity, result, p.AlertConditions)
	e.setPrevious(p.ID, result)

	if e.emitter != nil {
		evt := toEvent(p, pctx, result)
		if err := e.emitter.Emit(evt); err != nil {
			e.logger.Warn("probe result emit failed", "probe", p.ID, "error", err)
		}
	}

	return Outcome{Probe: p, Result: result}
}

func (e *Embedder) getPrevious(id string) *domain.ProbeResult {
	e.resultsMu.Lock()
	defer e.resultsMu.Unlock()
	return e.previous[id]
}

func (e *Embedder) setPrevious(id string, r *domain.ProbeResult) {
	e.resultsMu.Lock()
	defer e.resultsMu.Unlock()
	e.previous[id] = r
}

// TeardownAll calls every registered probe's Teardown (if any) and clears
// the previous-result cache.
func (e *Embedder) TeardownAll(ctx context.Context) {
	for _, p := range e.snapshot() {
		if p.Teardown != nil {
			p.Teardown(ctx)
		}
	}
	e.resultsMu.Lock()
	e.previous = make(map[string]*domain.ProbeResult)
	e.resultsMu.Unlock()
}

func sortByPriorityAsc(probes []*Probe) {
	for i := 1; i < len(probes); i++ {
		j := i
		for j > 0 && probes[j-1].Priority > probes[j].Priority {
			probes[j-1], probes[j] = probes[j], probes[j-1]
			j--
		}
	}
}

func toEvent(p *Probe, pctx *Context, result *domain.ProbeResult) domain.Event {
	eventType := "instrument.measurement"
	if result.Severity == domain.SeverityWarn || result.Severity == domain.SeverityCritical {
		eventType = "instrument.alert"
	}

	return domain.Event{
		Type:      eventType,
		Source:    p.Name,
		SessionID: pctx.SessionID,
		Timestamp: time.Now().UnixMilli(),
		Payload: map[string]any{
			"instrumentId": p.ID,
			"phase":        p.Phase,
			"actionType":   pctx.ActionType,
			"values":       result.Values,
			"severity":     result.Severity,
		},
	}
}
