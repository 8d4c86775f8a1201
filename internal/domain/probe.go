package domain

// Phase names the point in a task's lifecycle at which a probe is
// eligible to fire.
type Phase string

const (
	PhaseBeforeAction Phase = "BeforeAction"
	PhaseAfterAction  Phase = "AfterAction"
	PhaseDuringIdle   Phase = "DuringIdle"
	PhaseOnNavigation Phase = "OnNavigation"
	PhaseOnError      Phase = "OnError"
	PhaseContinuous   Phase = "Continuous"
)

// Severity ranks how urgently a probe result should be surfaced.
// Ordering (low to high): trace < info < warn < critical.
type Severity string

const (
	SeverityTrace    Severity = "trace"
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityTrace:    0,
	SeverityInfo:     1,
	SeverityWarn:     2,
	SeverityCritical: 3,
}

// rank returns a sortable weight for the severity, defaulting unknown
// values to the lowest rank rather than panicking.
func (s Severity) rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return 0
}

// Higher reports whether s outranks other.
func (s Severity) Higher(other Severity) bool {
	return s.rank() > other.rank()
}

// MaxSeverity returns whichever of a, b ranks higher.
func MaxSeverity(a, b Severity) Severity {
	if b.Higher(a) {
		return b
	}
	return a
}

// AlertOperator names a comparison a probe's alert condition applies to
// its measured value.
type AlertOperator string

const (
	OpGT       AlertOperator = "gt"
	OpLT       AlertOperator = "lt"
	OpEQ       AlertOperator = "eq"
	OpNEQ      AlertOperator = "neq"
	OpContains AlertOperator = "contains"
	OpRegex    AlertOperator = "regex"
)

// AlertCondition escalates a probe result's severity when Field's
// measured value satisfies Operator against Threshold.
type AlertCondition struct {
	Field     string        `json:"field"`
	Operator  AlertOperator `json:"operator"`
	Threshold any           `json:"threshold"`
	Severity  Severity      `json:"severity"`
}

// ProbeResult is what a probe's measure function returns: a timestamped
// set of measured values plus the severity assigned after evaluating
// alert conditions.
type ProbeResult struct {
	InstrumentID string         `json:"instrumentId"`
	Timestamp    int64          `json:"timestamp"` // unix millis, caller-supplied
	Values       map[string]any `json:"values"`
	Severity     Severity       `json:"severity"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// TraceContext carries distributed-tracing identifiers on an Event, in
// the shape telemetry.NewTraceContext builds from go.opentelemetry.io/otel/trace
// ID types — no exporter or TracerProvider is configured. The runner and
// the probe embedder emit their events without a TraceContext.
type TraceContext struct {
	TraceID string `json:"traceId"`
	SpanID  string `json:"spanId"`
}

// Event is the unit of observability data the producer ships off-process.
type Event struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Source       string         `json:"source"`
	SessionID    string         `json:"sessionId"`
	TaskName     string         `json:"taskName,omitempty"`
	Timestamp    int64          `json:"timestamp"`
	Payload      map[string]any `json:"payload"`
	TraceContext *TraceContext  `json:"traceContext,omitempty"`
}
