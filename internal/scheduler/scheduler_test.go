package scheduler

import (
	"errors"
	"testing"

	"github.com/flowforge/automata/internal/domain"
)

func step() domain.Step {
	return domain.Step{Type: domain.StepNavigate, URL: "https://example.com"}
}

func TestPlan_SimpleChain(t *testing.T) {
	wf := &domain.Workflow{
		Tasks: []domain.Task{
			{Name: "a", Steps: []domain.Step{step()}},
			{Name: "b", DependsOn: []string{"a"}, Steps: []domain.Step{step()}},
			{Name: "c", DependsOn: []string{"b"}, Steps: []domain.Step{step()}},
		},
	}

	batches, err := Plan(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	for i, want := range []string{"a", "b", "c"} {
		if len(batches[i]) != 1 || batches[i][0] != want {
			t.Errorf("batch %d = %v, want [%s]", i, batches[i], want)
		}
	}
}

func TestPlan_Diamond(t *testing.T) {
	// a -> b, a -> c, b,c -> d
	wf := &domain.Workflow{
		Tasks: []domain.Task{
			{Name: "a", Steps: []domain.Step{step()}},
			{Name: "b", DependsOn: []string{"a"}, Steps: []domain.Step{step()}},
			{Name: "c", DependsOn: []string{"a"}, Steps: []domain.Step{step()}},
			{Name: "d", DependsOn: []string{"b", "c"}, Steps: []domain.Step{step()}},
		},
	}

	batches, err := Plan(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[1]) != 2 || batches[1][0] != "b" || batches[1][1] != "c" {
		t.Errorf("batch 1 = %v, want [b c] (definition order preserved)", batches[1])
	}
}

func TestPlan_IndependentTasksShareABatch(t *testing.T) {
	wf := &domain.Workflow{
		Tasks: []domain.Task{
			{Name: "a", Steps: []domain.Step{step()}},
			{Name: "b", Steps: []domain.Step{step()}},
			{Name: "c", Steps: []domain.Step{step()}},
		},
	}

	batches, err := Plan(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("expected a single batch of 3, got %v", batches)
	}
}

func TestPlan_CycleDetected(t *testing.T) {
	wf := &domain.Workflow{
		Tasks: []domain.Task{
			{Name: "a", DependsOn: []string{"c"}, Steps: []domain.Step{step()}},
			{Name: "b", DependsOn: []string{"a"}, Steps: []domain.Step{step()}},
			{Name: "c", DependsOn: []string{"b"}, Steps: []domain.Step{step()}},
		},
	}

	_, err := Plan(wf)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if len(cycleErr.Participants) != 3 {
		t.Errorf("expected 3 cycle participants, got %v", cycleErr.Participants)
	}
}
