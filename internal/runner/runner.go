// Package runner drives a domain.Workflow end to end: it plans task
// batches via the scheduler, executes each task's steps against a
// browser session, tracks task state through the reconciler, fires
// probes around each action, and reports lifecycle events to an event
// bus producer.
//
// The concurrency shape generalizes the teacher's orchestrator/worker
// split (a WaitGroup plus one goroutine per queue consumer) into one
// goroutine per ready task, admitted through a counting semaphore
// acquired by the single dispatch loop so admission order stays FIFO.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/probe"
	"github.com/flowforge/automata/internal/reconciler"
	"github.com/flowforge/automata/internal/scheduler"
	"github.com/flowforge/automata/internal/steps"
	"github.com/flowforge/automata/internal/telemetry"
)

const defaultMaxConcurrentTasks = 4

// SessionFactory opens (or hands out) the browser session a task's steps
// run against. Called once per task, from the task's own goroutine.
type SessionFactory func(taskName string) (*steps.SessionContext, error)

// Emitter reports a lifecycle event; satisfied by *eventbus.Producer.
type Emitter interface {
	Emit(e domain.Event) error
}

// TaskResult is one task's outcome after a run completes.
type TaskResult struct {
	Name    string
	State   domain.TaskState
	Steps   []*steps.Result
	Output  map[string]any
	Err     error
}

// WorkflowResult is the terminal outcome of Run.
type WorkflowResult struct {
	Status domain.WorkflowStatus
	Tasks  map[string]*TaskResult
}

// Runner executes one domain.Workflow at a time. A Runner value is
// reusable across workflows; each Run call builds its own reconciler and
// task-output context.
type Runner struct {
	embedder *probe.Embedder
	emitter  Emitter
	logger   *slog.Logger
}

// New creates a Runner. embedder and emitter may be nil to disable
// probes and event reporting respectively.
func New(embedder *probe.Embedder, emitter Emitter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{embedder: embedder, emitter: emitter, logger: logger}
}

// Run plans wf into dependency batches and executes them, respecting
// Policy.MaxConcurrentTasks, Policy.TimeoutMs and Policy.FailFast.
func (r *Runner) Run(ctx context.Context, wf *domain.Workflow, sessions SessionFactory) (*WorkflowResult, error) {
	batches, err := scheduler.Plan(wf)
	if err != nil {
		return nil, fmt.Errorf("plan workflow: %w", err)
	}

	if wf.Policy.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(wf.Policy.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	maxConcurrent := wf.Policy.MaxConcurrentTasks
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentTasks
	}

	run := &runState{
		wf:        wf,
		recon:     reconciler.New(),
		tasksByID: make(map[string]*domain.Task, len(wf.Tasks)),
		results:   make(map[string]*TaskResult, len(wf.Tasks)),
		tmplCtx:   newTemplateContext(nil),
		sem:       make(chan struct{}, maxConcurrent),
		sessions:  sessions,
		runner:    r,
	}
	for i := range wf.Tasks {
		t := &wf.Tasks[i]
		run.tasksByID[t.Name] = t
		run.recon.Register(t.Name)
	}

	r.emit(domain.Event{Type: "workflow.started", Payload: map[string]any{"name": wf.Name}})

	for _, batch := range batches {
		run.runBatch(ctx, batch)
		if run.failFast.Load() {
			break
		}
	}

	status := run.finalStatus(ctx)
	telemetry.WorkflowOutcomes.WithLabelValues(string(status)).Inc()
	r.emit(domain.Event{Type: "workflow.finished", Payload: map[string]any{"name": wf.Name, "status": string(status)}})

	return &WorkflowResult{Status: status, Tasks: run.results}, nil
}

func (r *Runner) emit(e domain.Event) {
	if r.emitter == nil {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if err := r.emitter.Emit(e); err != nil {
		r.logger.Warn("event emit failed", "type", e.Type, "error", err)
	}
}

// runState holds everything one Run invocation needs to thread through
// its per-batch, per-task goroutines.
type runState struct {
	wf        *domain.Workflow
	recon     *reconciler.Reconciler
	tasksByID map[string]*domain.Task
	sessions  SessionFactory
	runner    *Runner

	resultsMu sync.Mutex
	results   map[string]*TaskResult

	tmplMu  sync.Mutex
	tmplCtx *templateContext

	sem chan struct{}

	failFast atomic.Bool
}

func (s *runState) runBatch(ctx context.Context, batch scheduler.Batch) {
	var wg sync.WaitGroup

	for _, name := range batch {
		if ctx.Err() != nil {
			s.forceEscalate(name, "Cancelled")
			continue
		}
		if s.failFast.Load() {
			s.forceEscalate(name, "Skipped: fail-fast triggered by a sibling task")
			continue
		}
		if blocked, reason := s.blockedByDependency(name); blocked {
			s.forceEscalate(name, reason)
			continue
		}

		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			s.forceEscalate(name, "Cancelled")
			continue
		}

		wg.Add(1)
		go func(taskName string) {
			defer wg.Done()
			defer func() { <-s.sem }()
			s.runTask(ctx, taskName)
		}(name)
	}

	wg.Wait()
}

func (s *runState) blockedByDependency(name string) (bool, string) {
	t := s.tasksByID[name]
	for _, dep := range t.DependsOn {
		st, err := s.recon.Snapshot(dep)
		if err != nil {
			continue
		}
		if st.State != domain.TaskSucceeded {
			return true, fmt.Sprintf("dependency %s did not succeed", dep)
		}
	}
	return false, ""
}

func (s *runState) forceEscalate(name, reason string) {
	if err := s.recon.ForceEscalate(name, reason); err != nil {
		s.runner.logger.Debug("force-escalate no-op", "task", name, "error", err)
	}
	snap, _ := s.recon.Snapshot(name)
	s.setResult(&TaskResult{Name: name, State: snap.State, Err: errors.New(reason)})
}

func (s *runState) runTask(ctx context.Context, name string) {
	task := s.tasksByID[name]

	if err := s.recon.Schedule(name); err != nil {
		s.runner.logger.Warn("schedule transition failed", "task", name, "error", err)
	}

	sess, err := s.sessions(name)
	if err != nil {
		s.forceEscalate(name, fmt.Sprintf("session open failed: %v", err))
		return
	}

	s.runner.emit(domain.Event{Type: "task.started", SessionID: sess.SessionID, TaskName: name})

	var lastStepResults []*steps.Result
	var output map[string]any
	var lastErr error

	for {
		if err := s.recon.Start(name); err != nil {
			s.runner.logger.Warn("start transition failed", "task", name, "error", err)
		}

		lastStepResults, output, lastErr = s.runSteps(ctx, task, sess)
		if lastErr == nil {
			if err := s.recon.Succeed(name); err != nil {
				s.runner.logger.Warn("succeed transition failed", "task", name, "error", err)
			}
			telemetry.TaskTransitions.WithLabelValues(string(domain.TaskSucceeded)).Inc()
			s.tmplMu.Lock()
			s.tmplCtx.recordOutput(task.Output.StoreAs, output)
			s.tmplMu.Unlock()
			break
		}

		if ctx.Err() != nil {
			s.forceEscalate(name, "Cancelled")
			s.runner.emit(domain.Event{Type: "task.failed", SessionID: sess.SessionID, TaskName: name})
			return
		}

		failErr := s.recon.Fail(name, lastErr.Error(), task.Retry.MaxRetries)
		if failErr != nil {
			s.runner.logger.Warn("fail transition failed", "task", name, "error", failErr)
		}

		snap, _ := s.recon.Snapshot(name)
		telemetry.TaskTransitions.WithLabelValues(string(snap.State)).Inc()
		if snap.State != domain.TaskRetrying {
			break
		}

		// snap.RetryCount was just incremented by Fail to reflect the
		// attempt about to start (1 for the first retry), so attempt i
		// (0-indexed) is RetryCount-1 and the sleep is backoffMs * 2^i.
		attempt := snap.RetryCount - 1
		backoff := time.Duration(task.Retry.BackoffMs) * time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			s.forceEscalate(name, "Cancelled")
			return
		}
		if err := s.recon.Retry(name); err != nil {
			s.runner.logger.Warn("retry transition failed", "task", name, "error", err)
		}
	}

	snap, _ := s.recon.Snapshot(name)
	result := &TaskResult{Name: name, State: snap.State, Steps: lastStepResults, Output: output, Err: lastErr}
	s.setResult(result)

	if snap.State == domain.TaskEscalated {
		s.runner.emit(domain.Event{Type: "task.failed", SessionID: sess.SessionID, TaskName: name})
		if s.wf.Policy.FailFast {
			s.failFast.Store(true)
		}
		return
	}
	s.runner.emit(domain.Event{Type: "task.succeeded", SessionID: sess.SessionID, TaskName: name})
}

func (s *runState) runSteps(ctx context.Context, task *domain.Task, sess *steps.SessionContext) ([]*steps.Result, map[string]any, error) {
	results := make([]*steps.Result, 0, len(task.Steps))
	output := make(map[string]any)

	s.tmplMu.Lock()
	tmplCtx := s.tmplCtx
	s.tmplMu.Unlock()

	for _, step := range task.Steps {
		rendered, err := renderStep(step, tmplCtx)
		if err != nil {
			return results, nil, fmt.Errorf("task %s: %w", task.Name, err)
		}

		s.fireProbes(ctx, domain.PhaseBeforeAction, sess, rendered, nil)

		start := time.Now()
		res := steps.Execute(ctx, rendered, sess)
		results = append(results, res)
		telemetry.StepDuration.WithLabelValues(string(rendered.Type)).Observe(time.Since(start).Seconds())

		s.fireProbes(ctx, domain.PhaseAfterAction, sess, rendered, map[string]any{
			"durationMs": float64(time.Since(start).Milliseconds()),
		})

		if !res.Success {
			telemetry.StepOutcomes.WithLabelValues(string(rendered.Type), "failure").Inc()
			s.fireProbes(ctx, domain.PhaseOnError, sess, rendered, map[string]any{"error": res.Error})
			return results, nil, fmt.Errorf("task %s step %s: %s", task.Name, step.Type, res.Error)
		}
		telemetry.StepOutcomes.WithLabelValues(string(rendered.Type), "success").Inc()

		if rendered.Type == domain.StepNavigate {
			s.fireProbes(ctx, domain.PhaseOnNavigation, sess, rendered, nil)
		}

		for k, v := range res.Data {
			output[k] = v
		}
	}

	return results, output, nil
}

func (s *runState) fireProbes(ctx context.Context, phase domain.Phase, sess *steps.SessionContext, step domain.Step, extra map[string]any) {
	if s.runner.embedder == nil {
		return
	}
	s.runner.embedder.FirePhase(ctx, phase, &probe.Context{
		SessionID:  sess.SessionID,
		ActionType: string(step.Type),
		Extra:      extra,
	})
}

func (s *runState) setResult(r *TaskResult) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	s.results[r.Name] = r
}

func (s *runState) finalStatus(ctx context.Context) domain.WorkflowStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WorkflowTimeout
	}

	anyEscalated := false
	s.resultsMu.Lock()
	for _, r := range s.results {
		if r.State == domain.TaskEscalated {
			anyEscalated = true
			break
		}
	}
	s.resultsMu.Unlock()

	if !anyEscalated {
		return domain.WorkflowSucceeded
	}
	if s.wf.Policy.FailFast {
		return domain.WorkflowFailFast
	}
	return domain.WorkflowFailed
}
