package capture

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"framegrab/internal/logging"
)

// ProcessObserver exposes the liveness check the monitor needs from a
// supervised process.
type ProcessObserver interface {
	Running() bool
}

// WaitResult reports what the monitor observed.
type WaitResult struct {
	FramesDelta int
	Elapsed     time.Duration
	// CeilingHit is true when polling stopped because maxWait elapsed while
	// the observed process (if any) was still running.
	CeilingHit bool
}

// Monitor polls an output directory until enough time passes or the
// producing process exits and its grace period drains.
type Monitor struct {
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewMonitor constructs a monitor polling at the given cadence.
func NewMonitor(pollInterval time.Duration, logger *slog.Logger) *Monitor {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Monitor{
		pollInterval: pollInterval,
		logger:       logging.NewComponentLogger(logger, "monitor"),
	}
}

// Wait polls the matching-file count under outputDir until maxWait elapses.
// With a process observer, the first observed exit starts the grace
// countdown so buffered frames can land without waiting out the full
// ceiling. Zero new frames is a valid result, not an error.
func (m *Monitor) Wait(ctx context.Context, outputDir, scenePrefix string, maxWait time.Duration, proc ProcessObserver, grace time.Duration) WaitResult {
	start := time.Now()
	baseline := m.countFrames(outputDir, scenePrefix)
	deadline := start.Add(maxWait)

	var exitObserved time.Time
	processExited := false

	for {
		now := time.Now()
		if now.After(deadline) {
			break
		}
		if processExited && now.Sub(exitObserved) >= grace {
			break
		}
		if !processExited && proc != nil && !proc.Running() {
			processExited = true
			exitObserved = now
			m.logger.Debug("capture process exited; draining grace period",
				logging.Duration("grace", grace),
			)
		}

		select {
		case <-ctx.Done():
			goto done
		case <-time.After(m.pollInterval):
		}
	}
done:

	frames := m.countFrames(outputDir, scenePrefix) - baseline
	if frames < 0 {
		frames = 0
	}
	elapsed := time.Since(start)
	return WaitResult{
		FramesDelta: frames,
		Elapsed:     elapsed,
		CeilingHit:  !processExited && proc != nil && elapsed >= maxWait,
	}
}

func (m *Monitor) countFrames(dir, prefix string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Debug("output directory unreadable during poll", logging.Error(err))
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		count++
	}
	return count
}
