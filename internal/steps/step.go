// Package steps executes a single domain.Step against an open browser
// session and reports the outcome in-band — a failed step is a Result
// with Success=false, never a panic or an out-of-band error channel,
// matching the teacher's http.go/delay.go convention of returning a
// populated Response even on a logical failure.
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

var (
	// ErrStepCancelled is reported when ctx is done before the step
	// finishes.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrStepTimeout is reported when a step's own timeout elapses.
	ErrStepTimeout = errors.New("step execution timeout")

	// ErrUnknownStepType is reported for a Step.Type the executor has no
	// handler for — should not happen for a domain.Validate'd workflow,
	// kept as a defensive final case in the dispatch switch.
	ErrUnknownStepType = errors.New("unknown step type")

	defaultStepTimeout = 30 * time.Second
)

// BrowserHandle is the opaque browser session the executor drives.
// Concrete protocol binding (CDP, WebDriver, or an in-process stub) is a
// property of the runtime environment, not of this package — see
// NewNoopHandle for the reference implementation used by tests and by
// cmd/automata-runner when no real driver is wired in.
type BrowserHandle interface {
	Navigate(ctx context.Context, url string) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	FindElement(ctx context.Context, selector string) (Element, error)
}

// Element is a single DOM node reference returned by BrowserHandle.FindElement.
type Element interface {
	Attribute(ctx context.Context, name string) (string, bool, error)
	InnerText(ctx context.Context) (string, error)
}

// SessionContext groups the browser handle with the session identifier
// used to correlate steps, tasks, and emitted events.
type SessionContext struct {
	SessionID string
	Page      BrowserHandle
}

// Result is the in-band outcome of one step execution.
type Result struct {
	Step       domain.Step
	Success    bool
	DurationMs int64
	Data       map[string]any
	Error      string
}

func newResult(step domain.Step, start time.Time, data map[string]any, err error) *Result {
	r := &Result{
		Step:       step,
		DurationMs: time.Since(start).Milliseconds(),
		Data:       data,
	}
	if err != nil {
		r.Success = false
		r.Error = err.Error()
	} else {
		r.Success = true
	}
	return r
}

// Execute dispatches a step to its variant handler and always returns a
// non-nil *Result; a failing step is reported via Result.Success/Error,
// never via a returned error.
func Execute(ctx context.Context, step domain.Step, sess *SessionContext) *Result {
	start := time.Now()

	timeout := defaultStepTimeout
	if step.TimeoutMs > 0 {
		timeout = time.Duration(step.TimeoutMs) * time.Millisecond
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var data map[string]any
	var err error

	switch step.Type {
	case domain.StepNavigate:
		err = execNavigate(stepCtx, sess, step)
	case domain.StepWaitFor:
		err = execWaitFor(stepCtx, sess, step, timeout)
	case domain.StepClick:
		err = execClick(stepCtx, sess, step)
	case domain.StepExtract:
		data, err = execExtract(stepCtx, sess, step)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownStepType, step.Type)
	}

	if err != nil && stepCtx.Err() != nil && ctx.Err() == nil {
		// the step's own timeout elapsed, not the caller's context
		err = fmt.Errorf("%w: %v", ErrStepTimeout, err)
	} else if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}

	return newResult(step, start, data, err)
}
