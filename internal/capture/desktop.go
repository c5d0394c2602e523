package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/services"
)

const (
	saveAttempts    = 3
	saveBackoffUnit = 150 * time.Millisecond
)

// Grabber captures one display's current image. Injectable for tests.
type Grabber func(displayIndex int) (image.Image, error)

// DesktopEngine extracts frames by screenshotting the desktop at a computed
// cadence while the video plays on screen.
type DesktopEngine struct {
	cfg      *config.Config
	logger   *slog.Logger
	grab     Grabber
	displays func() int
	sleep    func(time.Duration)
}

// NewDesktopEngine wires the desktop strategy against the host's displays.
func NewDesktopEngine(cfg *config.Config, logger *slog.Logger) *DesktopEngine {
	return &DesktopEngine{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "desktop"),
		grab: func(displayIndex int) (image.Image, error) {
			return screenshot.CaptureDisplay(displayIndex)
		},
		displays: screenshot.NumActiveDisplays,
		sleep:    time.Sleep,
	}
}

// WithGrabber overrides screen capture (used in tests).
func (e *DesktopEngine) WithGrabber(displays func() int, grab Grabber) *DesktopEngine {
	if displays != nil {
		e.displays = displays
	}
	if grab != nil {
		e.grab = grab
	}
	return e
}

// Capture loops for the configured duration, saving one screenshot per
// sampling interval. Iterations that overrun their interval skip the sleep
// entirely. Elapsed time uses the monotonic clock, so a wall-clock
// adjustment mid-capture cannot skew the achieved rate.
func (e *DesktopEngine) Capture(ctx context.Context, req Request) (Result, error) {
	displayCount := e.displays()
	if displayCount == 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, "desktop", "select display",
			"no active displays found; desktop capture requires a visible session", nil)
	}
	displayIndex := 0 // primary first, which is also the first enumerated

	interval := SampleInterval(req.TargetFPS)
	duration := time.Duration(e.cfg.Capture.DesktopDuration) * time.Second
	timedOut := false
	if req.Limit > 0 && req.Limit < duration {
		duration = req.Limit
		timedOut = true
	}

	e.logger.Info("starting desktop capture",
		logging.String("video", req.Video),
		logging.Duration("interval", interval),
		logging.Duration("duration", duration),
		logging.Int("display", displayIndex),
	)

	start := time.Now()
	saved := 0
	for index := 0; time.Since(start) < duration; index++ {
		select {
		case <-ctx.Done():
			return e.finish(req, saved, time.Since(start), timedOut), nil
		default:
		}

		iterationStart := time.Now()
		img, err := e.grab(displayIndex)
		if err != nil {
			e.logger.Warn("screenshot failed; skipping sample",
				logging.Int("sample", index),
				logging.Error(err),
			)
		} else {
			name := fmt.Sprintf("%s%05d.png", req.ScenePrefix, index)
			if err := e.savePNG(filepath.Join(req.OutputDir, name), img); err != nil {
				e.logger.Warn("failed to save screenshot",
					logging.String("file", name),
					logging.Error(err),
				)
			} else {
				saved++
			}
		}

		if remaining := interval - time.Since(iterationStart); remaining > 0 {
			e.sleep(remaining)
		}
	}

	return e.finish(req, saved, time.Since(start), timedOut), nil
}

func (e *DesktopEngine) finish(req Request, saved int, elapsed time.Duration, timedOut bool) Result {
	result := Result{
		Frames:      saved,
		Elapsed:     elapsed,
		AchievedFPS: achievedRate(saved, elapsed),
		TimedOut:    timedOut,
	}
	e.logger.Info("desktop capture finished",
		logging.Int("frames", result.Frames),
		logging.Duration("elapsed", result.Elapsed),
		logging.Float64("achieved_fps", result.AchievedFPS),
	)
	return result
}

// savePNG writes the image with bounded retries to absorb transient I/O
// contention from indexers and scanners touching fresh files.
func (e *DesktopEngine) savePNG(path string, img image.Image) error {
	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if attempt > 1 {
			e.sleep(saveBackoffUnit * time.Duration(attempt-1))
		}
		if err := writePNG(path, img); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("save %s after %d attempts: %w", path, saveAttempts, lastErr)
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return errors.Join(err, os.Remove(path))
	}
	return file.Close()
}
