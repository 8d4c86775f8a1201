package runner

import "errors"

var (
	// ErrTemplateParse wraps a failure to parse a step's Go template
	// fields (URL, Selector).
	ErrTemplateParse = errors.New("runner: template parse failed")

	// ErrTemplateRender wraps a failure to execute an otherwise valid
	// template against the current task-output context.
	ErrTemplateRender = errors.New("runner: template render failed")

	// ErrWorkflowTimeout names the case where Policy.TimeoutMs elapsed
	// before every task reached a terminal state. Run does not return or
	// attach it: a timed-out run is reported as WorkflowResult.Status ==
	// domain.WorkflowTimeout, and tasks cut off by the deadline carry the
	// error "Cancelled".
	ErrWorkflowTimeout = errors.New("runner: workflow timeout exceeded")

	// ErrDependencyFailed names the case where a task is force-escalated
	// because a task it depends on did not succeed. Run records that case
	// as a plain "dependency <name> did not succeed" error on the task's
	// TaskResult, which does not wrap this sentinel.
	ErrDependencyFailed = errors.New("runner: upstream dependency failed")
)
