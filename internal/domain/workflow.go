package domain

// WorkflowPolicy configures cross-cutting execution behavior for a run:
// how many tasks may be Running at once, an overall wall-clock budget,
// and whether the first Escalated task should abort the rest of the run.
type WorkflowPolicy struct {
	MaxConcurrentTasks int  `json:"maxConcurrentTasks"`
	TimeoutMs          int  `json:"timeoutMs,omitempty"`
	FailFast           bool `json:"failFast"`
}

// Workflow is the top-level unit the runner executes: a named dependency
// graph of tasks plus the policy governing how they run.
type Workflow struct {
	Name   string         `json:"name"`
	Tasks  []Task         `json:"tasks"`
	Policy WorkflowPolicy `json:"policy"`
}
