// Package steps executes a single domain.Step (navigate, waitFor, click,
// extract) against an open browser session.
//
// Execute always returns a *Result; a step that fails is reported via
// Result.Success/Result.Error, not via a Go error return — mirroring the
// teacher's http.go/delay.go convention of never surfacing a logical
// failure as a panic or an out-of-band error.
//
//	result := steps.Execute(ctx, step, sessionCtx)
//	if !result.Success {
//	    // result.Error holds the failure reason
//	}
//
// # Files
//
//   - step.go        — BrowserHandle/Element interfaces, Execute dispatch
//   - navigate.go    — navigate
//   - waitfor.go     — waitFor
//   - click.go       — click
//   - extract.go     — extract, schema-driven field coercion
//   - noop_handle.go — NoopHandle, a reference BrowserHandle for tests and
//     for running without a real browser driver configured
package steps
