// Package logging provides the slog construction and attribute helpers used
// across siphon. Every run binds a run_id attribute so log lines from one
// invocation can be correlated after the fact.
package logging
