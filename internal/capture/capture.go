// Package capture extracts still frames from videos through two
// interchangeable strategies: delegating to the external player's periodic
// frame-dump filter, or screenshotting the desktop at a computed cadence.
package capture

import (
	"context"
	"math"
	"time"
)

// Request describes one video's capture parameters.
type Request struct {
	Video       string
	OutputDir   string
	ScenePrefix string
	TargetFPS   float64
	// Limit bounds this video's capture wall-clock time. Zero means the
	// strategy's own ceiling applies.
	Limit time.Duration
	// ExtraArgs are caller-supplied player arguments appended after the
	// baseline flags. Blank entries are dropped with a warning.
	ExtraArgs []string
}

// Result reports what a single capture invocation produced.
type Result struct {
	Frames      int
	Elapsed     time.Duration
	AchievedFPS float64
	ExitCode    int
	TimedOut    bool
}

// Engine is the contract shared by both capture strategies.
type Engine interface {
	Capture(ctx context.Context, req Request) (Result, error)
}

// SnapshotRatio computes the every-Nth-frame divisor for the player's
// frame-dump filter, clamped so at least every frame qualifies.
func SnapshotRatio(sourceFPS, targetFPS float64) int {
	if targetFPS <= 0 {
		return 1
	}
	ratio := int(math.Round(sourceFPS / targetFPS))
	if ratio < 1 {
		ratio = 1
	}
	return ratio
}

// SampleInterval computes the desktop strategy's screenshot cadence,
// clamped to at least one millisecond.
func SampleInterval(targetFPS float64) time.Duration {
	if targetFPS <= 0 {
		return time.Second
	}
	ms := int(math.Round(1000 / targetFPS))
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

func achievedRate(frames int, elapsed time.Duration) float64 {
	if elapsed <= 0 || frames == 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}
