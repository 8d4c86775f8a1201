package domain

// RetryPolicy controls how many times a failed task is retried and how
// long the executor waits between attempts. Backoff is exponential,
// seeded from BackoffMs (attempt 0 waits BackoffMs, attempt 1 waits
// 2*BackoffMs, and so on).
type RetryPolicy struct {
	MaxRetries int `json:"maxRetries"`
	BackoffMs  int `json:"backoffMs"`
}

// OutputSpec says where a task's extracted data should land and in what
// shape, for consumers that persist or template off task outputs.
type OutputSpec struct {
	StoreAs string `json:"storeAs,omitempty"`
	Format  string `json:"format,omitempty"` // "json", "csv", ""
}

// Task is one node of a workflow's dependency graph: a named sequence of
// steps with declared predecessors, a retry policy, and an output
// destination. Task is a static definition — runtime state lives
// separately in a TaskStatus tracked by the reconciler.
type Task struct {
	Name      string      `json:"name"`
	DependsOn []string    `json:"dependsOn,omitempty"`
	Steps     []Step      `json:"steps"`
	Retry     RetryPolicy `json:"retry"`
	Output    OutputSpec  `json:"output,omitempty"`
}
