// Package preflight validates the search root and the environment before a
// search runs.
//
// ValidateRoot is the check every entry point (CLI, browser, MCP tool)
// applies to the directory before starting a search. Checker runs the
// broader report behind `findtext doctor`:
//
//	checker := preflight.New(preflight.WithConcurrency(8))
//	results := checker.RunAll(ctx, "/path/to/tree")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
