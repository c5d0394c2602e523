// Package logging assembles structured slog loggers and formatting helpers
// used across the batch pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so per-video code can
// automatically tag log lines with the run ID, the current video, and the
// stage. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
