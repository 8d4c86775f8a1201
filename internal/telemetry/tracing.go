package telemetry

import (
	"crypto/rand"

	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/automata/internal/domain"
)

// NewTraceContext generates a fresh W3C trace/span ID pair using
// go.opentelemetry.io/otel/trace's ID value types. No TracerProvider or
// exporter is configured here; this module only needs the ID formats so
// downstream consumers of a domain.Event can correlate it with a trace
// recorded elsewhere.
func NewTraceContext() (*domain.TraceContext, error) {
	var traceID trace.TraceID
	if _, err := rand.Read(traceID[:]); err != nil {
		return nil, err
	}

	var spanID trace.SpanID
	if _, err := rand.Read(spanID[:]); err != nil {
		return nil, err
	}

	return &domain.TraceContext{
		TraceID: traceID.String(),
		SpanID:  spanID.String(),
	}, nil
}

// NewChildSpanID generates a new span ID to attach to an event caused by
// an existing trace, keeping the parent's TraceID.
func NewChildSpanID(parent *domain.TraceContext) (*domain.TraceContext, error) {
	if parent == nil {
		return NewTraceContext()
	}

	var spanID trace.SpanID
	if _, err := rand.Read(spanID[:]); err != nil {
		return nil, err
	}

	return &domain.TraceContext{
		TraceID: parent.TraceID,
		SpanID:  spanID.String(),
	}, nil
}
