// Package reconciler tracks the per-task state machine:
//
//	Pending → Scheduled → Running → Succeeded
//	                             ↘ Retrying → Running (loop)
//	                             ↘ Escalated
//
// Every transition is serialized by a single mutex; the reconciler itself
// does no I/O and holds no reference to the workflow runner, matching
// the teacher's domain.Task mutators (internal/domain/task.go) which are
// plain state-mutation methods with no side effects, generalized here
// into an explicit six-state machine with sentinel-errored guard
// conditions instead of unconditional field assignment.
package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

// Reconciler owns the TaskStatus for every task in one workflow run.
type Reconciler struct {
	mu       sync.Mutex
	statuses map[string]*domain.TaskStatus
}

// New creates an empty Reconciler.
func New() *Reconciler {
	return &Reconciler{statuses: make(map[string]*domain.TaskStatus)}
}

// Register creates a task's status entry in the Pending state. Calling
// Register twice for the same name resets it back to Pending.
func (r *Reconciler) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = &domain.TaskStatus{Name: name, State: domain.TaskPending, UpdatedAt: time.Now()}
}

// Snapshot returns a copy of a task's current status.
func (r *Reconciler) Snapshot(name string) (domain.TaskStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[name]
	if !ok {
		return domain.TaskStatus{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return *st, nil
}

// All returns a copy of every tracked task's status.
func (r *Reconciler) All() map[string]domain.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.TaskStatus, len(r.statuses))
	for name, st := range r.statuses {
		out[name] = *st
	}
	return out
}

func (r *Reconciler) get(name string) (*domain.TaskStatus, error) {
	st, ok := r.statuses[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return st, nil
}

func (r *Reconciler) transition(name string, from domain.TaskState, to domain.TaskState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.get(name)
	if err != nil {
		return err
	}
	if st.State != from {
		return fmt.Errorf("%w: task %s: %s -> %s (currently %s)",
			ErrInvalidTransition, name, from, to, st.State)
	}
	st.State = to
	st.UpdatedAt = time.Now()
	return nil
}

// Schedule moves a task Pending -> Scheduled.
func (r *Reconciler) Schedule(name string) error {
	return r.transition(name, domain.TaskPending, domain.TaskScheduled)
}

// Start moves a task Scheduled -> Running.
func (r *Reconciler) Start(name string) error {
	return r.transition(name, domain.TaskScheduled, domain.TaskRunning)
}

// Retry moves a task Retrying -> Running, for the next attempt.
func (r *Reconciler) Retry(name string) error {
	return r.transition(name, domain.TaskRetrying, domain.TaskRunning)
}

// Succeed moves a task Running -> Succeeded.
func (r *Reconciler) Succeed(name string) error {
	return r.transition(name, domain.TaskRunning, domain.TaskSucceeded)
}

// Fail records a failed attempt. If the retry budget (maxRetries) is not
// yet exhausted it moves Running -> Retrying and increments RetryCount;
// otherwise it moves Running -> Escalated. Either way LastError is set.
func (r *Reconciler) Fail(name string, errMsg string, maxRetries int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.get(name)
	if err != nil {
		return err
	}
	if st.State != domain.TaskRunning {
		return fmt.Errorf("%w: task %s: fail requires Running (currently %s)",
			ErrInvalidTransition, name, st.State)
	}

	st.LastError = errMsg
	if st.RetryCount < maxRetries {
		st.RetryCount++
		st.State = domain.TaskRetrying
	} else {
		st.State = domain.TaskEscalated
	}
	st.UpdatedAt = time.Now()
	return nil
}

// ForceEscalate moves a task directly to Escalated from any non-terminal
// state (Pending, Scheduled, Running or Retrying), bypassing the retry
// count — used for cancellation, workflow timeout, and dependency-failure
// propagation, none of which count against the task's own retry budget.
func (r *Reconciler) ForceEscalate(name string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.get(name)
	if err != nil {
		return err
	}
	if st.State.IsTerminal() {
		return fmt.Errorf("%w: task %s: already terminal (%s)",
			ErrInvalidTransition, name, st.State)
	}
	st.LastError = reason
	st.State = domain.TaskEscalated
	st.UpdatedAt = time.Now()
	return nil
}
