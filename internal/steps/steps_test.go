package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

type fakeHandle struct {
	navigated   []string
	clicked     []string
	waitErr     error
	elementText string
	elementAttr map[string]string
}

func (h *fakeHandle) Navigate(ctx context.Context, url string) error {
	h.navigated = append(h.navigated, url)
	return nil
}

func (h *fakeHandle) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return h.waitErr
}

func (h *fakeHandle) Click(ctx context.Context, selector string) error {
	h.clicked = append(h.clicked, selector)
	return nil
}

func (h *fakeHandle) FindElement(ctx context.Context, selector string) (Element, error) {
	return &NoopElement{Text: h.elementText, Attrs: h.elementAttr}, nil
}

func TestExecute_Navigate(t *testing.T) {
	h := &fakeHandle{}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(context.Background(), domain.Step{Type: domain.StepNavigate, URL: "https://example.com"}, sess)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if len(h.navigated) != 1 || h.navigated[0] != "https://example.com" {
		t.Errorf("navigate not recorded: %v", h.navigated)
	}
}

func TestExecute_Click(t *testing.T) {
	h := &fakeHandle{}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(context.Background(), domain.Step{Type: domain.StepClick, Selector: "#go"}, sess)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if len(h.clicked) != 1 || h.clicked[0] != "#go" {
		t.Errorf("click not recorded: %v", h.clicked)
	}
}

func TestExecute_WaitFor_Failure(t *testing.T) {
	h := &fakeHandle{waitErr: errors.New("selector never appeared")}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(context.Background(), domain.Step{Type: domain.StepWaitFor, Selector: "#loaded"}, sess)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == "" {
		t.Error("expected non-empty error")
	}
}

func TestExecute_Extract_WithSchema(t *testing.T) {
	h := &fakeHandle{elementText: "42", elementAttr: map[string]string{"href": "/next"}}
	sess := &SessionContext{SessionID: "s1", Page: h}

	step := domain.Step{
		Type:     domain.StepExtract,
		Selector: "#price",
		Schema: []domain.SchemaField{
			{Name: "value", Type: "number"},
			{Name: "href", Type: "string"},
		},
	}

	res := Execute(context.Background(), step, sess)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if res.Data["value"] != 42.0 {
		t.Errorf("expected value=42, got %v", res.Data["value"])
	}
	if res.Data["href"] != "/next" {
		t.Errorf("expected href=/next (read as an attribute), got %v", res.Data["href"])
	}
}

func TestExecute_Extract_FieldFallsBackToInnerTextWhenAttributeAbsent(t *testing.T) {
	h := &fakeHandle{elementText: "fallback text"}
	sess := &SessionContext{SessionID: "s1", Page: h}

	step := domain.Step{
		Type:     domain.StepExtract,
		Selector: "#price",
		Schema:   []domain.SchemaField{{Name: "title", Type: "string"}},
	}

	res := Execute(context.Background(), step, sess)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if res.Data["title"] != "fallback text" {
		t.Errorf("expected title to fall back to inner text, got %v", res.Data["title"])
	}
}

func TestExecute_Extract_NoSchemaFallsBackToText(t *testing.T) {
	h := &fakeHandle{elementText: "hello"}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(context.Background(), domain.Step{Type: domain.StepExtract, Selector: "#title"}, sess)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if res.Data["text"] != "hello" {
		t.Errorf("expected text=hello, got %v", res.Data["text"])
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &fakeHandle{waitErr: errors.New("boom")}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(ctx, domain.Step{Type: domain.StepWaitFor, Selector: "#x"}, sess)
	if res.Success {
		t.Fatal("expected failure on cancelled context")
	}
	if res.Error == "" {
		t.Error("expected non-empty error on cancellation")
	}
}

func TestExecute_UnknownStepTypeDoesNotPanic(t *testing.T) {
	// Exhaustiveness guard: every domain.AllStepTypes() entry must be
	// handled by Execute's switch. This test instead checks the default
	// branch behaves safely for a type outside that list.
	h := &fakeHandle{}
	sess := &SessionContext{SessionID: "s1", Page: h}

	res := Execute(context.Background(), domain.Step{Type: "teleport"}, sess)
	if res.Success {
		t.Fatal("expected failure for unknown step type")
	}
}

func TestAllStepTypesHandled(t *testing.T) {
	h := &fakeHandle{elementText: "x"}
	sess := &SessionContext{SessionID: "s1", Page: h}

	for _, st := range domain.AllStepTypes() {
		step := domain.Step{Type: st, URL: "https://example.com", Selector: "#a"}
		res := Execute(context.Background(), step, sess)
		if res == nil {
			t.Fatalf("Execute returned nil for step type %s", st)
		}
		if !res.Success {
			t.Errorf("step type %s not handled: %s", st, res.Error)
		}
	}
}
