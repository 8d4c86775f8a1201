// Package scheduler computes the batched execution order for a workflow's
// dependency graph.
//
// Structure:
//   - scheduler.go — Plan(), the batched Kahn's-algorithm implementation
//   - errors.go    — CycleError, returned when the graph cannot be fully
//     ordered
package scheduler
