// Package runctx holds the per-invocation run context threaded through the
// batch pipeline. Nothing in here persists beyond the run; durable state
// lives in the resume log and audit registry files the run produces.
package runctx

import (
	"strings"

	"github.com/google/uuid"

	"framegrab/internal/config"
)

// Stats accumulates batch counters. Owned by the orchestrator goroutine;
// not safe for concurrent writers.
type Stats struct {
	Discovered  int
	Processed   int
	TimedOut    int
	Skipped     int
	Failed      int
	FramesSaved int
}

// RunContext is created once per batch invocation and passed by pointer to
// every helper.
type RunContext struct {
	RunID        string
	Config       *config.Config
	Stats        Stats
	RegistryPath string
}

// New builds a run context with a fresh run identifier.
func New(cfg *config.Config) *RunContext {
	return &RunContext{
		RunID:  NewRunID(),
		Config: cfg,
	}
}

// NewRunID returns a short random token suitable for file suffixes.
func NewRunID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:8]
}
