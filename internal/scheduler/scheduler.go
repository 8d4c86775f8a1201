// Package scheduler computes the dependency-ordered execution plan for a
// workflow: a sequence of batches where every task in batch i depends only
// on tasks in batches 0..i-1. It is a direct generalization of the
// teacher's single-pass Kahn's-algorithm DAG (internal/engine/dag.go) into
// discrete, explicitly enumerated batches, with the parallel-branch/join
// machinery dropped since Step no longer nests branches.
package scheduler

import (
	"sort"

	"github.com/flowforge/automata/internal/domain"
)

// Batch is one set of tasks eligible to run concurrently, listed in the
// definition order they appeared in the workflow — preserved so admission
// into a bounded-concurrency pool is deterministic.
type Batch []string

// Plan builds the batch sequence for a workflow. The workflow is assumed
// to have already passed domain.Validate (unique names, known
// dependencies); Plan's only additional check is cycle detection.
func Plan(wf *domain.Workflow) ([]Batch, error) {
	indexOf := make(map[string]int, len(wf.Tasks))
	for i, t := range wf.Tasks {
		indexOf[t.Name] = i
	}

	inDegree := make(map[string]int, len(wf.Tasks))
	dependents := make(map[string][]string, len(wf.Tasks))

	for _, t := range wf.Tasks {
		inDegree[t.Name] = len(t.DependsOn)
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], t.Name)
		}
	}

	remaining := len(wf.Tasks)
	batches := make([]Batch, 0)

	for remaining > 0 {
		var ready []string
		for name, deg := range inDegree {
			if deg == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return nil, newCycleError(inDegree)
		}

		sort.Slice(ready, func(i, j int) bool {
			return indexOf[ready[i]] < indexOf[ready[j]]
		})

		batch := make(Batch, len(ready))
		copy(batch, ready)
		batches = append(batches, batch)

		for _, name := range ready {
			delete(inDegree, name)
			remaining--
			for _, dep := range dependents[name] {
				inDegree[dep]--
			}
		}
	}

	return batches, nil
}
