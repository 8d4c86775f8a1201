package steps

import (
	"context"
	"time"
)

// NoopHandle is a reference BrowserHandle that performs no real browser
// work. It's used by cmd/automata-runner when no concrete driver is
// configured, and by this package's own tests.
type NoopHandle struct {
	Elements map[string]*NoopElement
}

// NewNoopHandle creates a handle with an empty element table; callers add
// entries via Elements before running steps that need FindElement to
// resolve something meaningful.
func NewNoopHandle() *NoopHandle {
	return &NoopHandle{Elements: make(map[string]*NoopElement)}
}

func (h *NoopHandle) Navigate(ctx context.Context, url string) error { return nil }

func (h *NoopHandle) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	return nil
}

func (h *NoopHandle) Click(ctx context.Context, selector string) error { return nil }

func (h *NoopHandle) FindElement(ctx context.Context, selector string) (Element, error) {
	if el, ok := h.Elements[selector]; ok {
		return el, nil
	}
	return &NoopElement{}, nil
}

// NoopElement is a fixed-content Element used by NoopHandle.
type NoopElement struct {
	Text  string
	Attrs map[string]string
}

func (e *NoopElement) InnerText(ctx context.Context) (string, error) { return e.Text, nil }

func (e *NoopElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.Attrs == nil {
		return "", false, nil
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}
