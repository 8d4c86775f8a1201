package domain

// StepType identifies which browser action a Step performs.
type StepType string

// The four step variants the engine understands. Step is a flattened
// tagged struct rather than an interface hierarchy: Type is the
// discriminator and only the fields relevant to that variant are set.
const (
	StepNavigate StepType = "navigate"
	StepWaitFor  StepType = "waitFor"
	StepClick    StepType = "click"
	StepExtract  StepType = "extract"
)

// AllStepTypes lists every known variant, used by exhaustiveness tests
// in the steps package.
func AllStepTypes() []StepType {
	return []StepType{StepNavigate, StepWaitFor, StepClick, StepExtract}
}

// SchemaField describes one field an Extract step should pull from the
// page and the shape to coerce it into. The field is read from the
// same-named attribute on the matched element, falling back to its
// inner text when that attribute is absent.
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"` // "string", "number", "bool"
}

// Step is one browser action within a task.
type Step struct {
	Type StepType `json:"type"`

	// Navigate
	URL string `json:"url,omitempty"`

	// WaitFor / Click / Extract
	Selector string `json:"selector,omitempty"`

	// Extract
	Schema []SchemaField `json:"schema,omitempty"`

	// Applies to any variant; 0 means the executor's default.
	TimeoutMs int `json:"timeoutMs,omitempty"`
}
