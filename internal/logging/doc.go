// Package logging assembles structured slog loggers and formatting helpers used
// across runnerdb components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so the store, scans, merges, and
// imports tag log lines with the same keys (runner_id, club_id, batch_id).
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
