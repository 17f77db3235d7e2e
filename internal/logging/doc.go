// Package logging assembles structured slog loggers and formatting helpers used
// across dockhand.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so runner code automatically
// tags log lines with operation and run identifiers. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
