package domain

import (
	"encoding/json"
	"fmt"
)

var validStepTypes = map[StepType]bool{
	StepNavigate: true,
	StepWaitFor:  true,
	StepClick:    true,
	StepExtract:  true,
}

// IsValidStepType reports whether a step type is one of the known variants.
func IsValidStepType(t StepType) bool {
	return validStepTypes[t]
}

// ParseWorkflow unmarshals and validates a workflow definition in one call.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Validate checks structural integrity of a workflow: non-empty task list,
// unique task names, known step types, non-empty step lists, and that every
// declared dependency refers to another task in the same workflow (not
// itself). It does not check for cycles — that is the scheduler's job,
// since a cycle can only be detected by attempting the topological sort.
func Validate(wf *Workflow) error {
	if wf == nil || len(wf.Tasks) == 0 {
		return ErrEmptyTasks
	}

	names := make(map[string]bool, len(wf.Tasks))
	for i := range wf.Tasks {
		task := &wf.Tasks[i]
		if err := validateTask(task, names); err != nil {
			return err
		}
	}

	for i := range wf.Tasks {
		task := &wf.Tasks[i]
		for _, dep := range task.DependsOn {
			if !names[dep] {
				return NewValidationError(task.Name, "dependsOn",
					fmt.Sprintf("depends on unknown task: %s", dep), ErrMissingDependency)
			}
		}
	}

	return nil
}

func validateTask(task *Task, names map[string]bool) error {
	if task.Name == "" {
		return NewValidationError("", "name", "task has empty name", ErrEmptyTaskName)
	}
	if names[task.Name] {
		return NewValidationError(task.Name, "name",
			fmt.Sprintf("duplicate task name: %s", task.Name), ErrDuplicateTaskName)
	}
	names[task.Name] = true

	if len(task.Steps) == 0 {
		return NewValidationError(task.Name, "steps", "task has no steps", ErrEmptySteps)
	}

	for _, dep := range task.DependsOn {
		if dep == task.Name {
			return NewValidationError(task.Name, "dependsOn",
				"task depends on itself", ErrSelfDependency)
		}
	}

	for _, step := range task.Steps {
		if !IsValidStepType(step.Type) {
			return NewValidationError(task.Name, "type",
				fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
		}
	}

	return nil
}
