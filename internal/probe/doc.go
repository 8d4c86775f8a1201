// Package probe implements the embedder described in probe.go.
//
// # Files
//
//   - probe.go      — Probe, Embedder, copy-on-write registry, FirePhase
//   - conditions.go — EvaluateSeverity, alert condition matching
//   - builtin.go    — reference probes (step latency, error rate)
package probe
