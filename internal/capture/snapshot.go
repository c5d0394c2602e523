package capture

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/process"
)

// ProcessAuditor records external-process lifecycle events. Satisfied by
// audit.Registry.
type ProcessAuditor interface {
	RegisterStart(pid int) error
	RegisterStop(pid int) error
}

// FPSProber resolves a video's source frame rate. Injectable for tests.
type FPSProber func(ctx context.Context, videoPath string) (float64, error)

// SnapshotEngine drives the external player's scene filter to dump every
// Nth frame into the output directory.
type SnapshotEngine struct {
	cfg     *config.Config
	manager *process.Manager
	monitor *Monitor
	auditor ProcessAuditor
	prober  FPSProber
	logger  *slog.Logger
}

// NewSnapshotEngine wires the snapshot strategy with default collaborators.
func NewSnapshotEngine(cfg *config.Config, manager *process.Manager, monitor *Monitor, auditor ProcessAuditor, logger *slog.Logger) *SnapshotEngine {
	engine := &SnapshotEngine{
		cfg:     cfg,
		manager: manager,
		monitor: monitor,
		auditor: auditor,
		logger:  logging.NewComponentLogger(logger, "snapshot"),
	}
	engine.prober = func(ctx context.Context, videoPath string) (float64, error) {
		return ProbeSourceFPS(ctx, cfg.Capture.FFprobeBinary, videoPath)
	}
	return engine
}

// WithProber overrides the frame-rate probe (used in tests).
func (e *SnapshotEngine) WithProber(prober FPSProber) *SnapshotEngine {
	if prober != nil {
		e.prober = prober
	}
	return e
}

// Capture launches the player, delegates waiting to the monitor, and tears
// the player down before reporting.
func (e *SnapshotEngine) Capture(ctx context.Context, req Request) (Result, error) {
	sourceFPS := e.resolveSourceFPS(ctx, req.Video)
	ratio := SnapshotRatio(sourceFPS, req.TargetFPS)

	args := e.buildArgs(req, ratio)
	e.logger.Info("launching snapshot capture",
		logging.String("video", req.Video),
		logging.Float64("source_fps", sourceFPS),
		logging.Int("scene_ratio", ratio),
	)

	startupTimeout := time.Duration(e.cfg.Capture.StartupTimeout) * time.Second
	handle, err := e.manager.Start(ctx, e.cfg.Capture.VLCBinary, args, startupTimeout)
	if err != nil {
		// A player that died inside the startup window still gets a
		// start/stop pair in the registry.
		var startupErr *process.StartupError
		if errors.As(err, &startupErr) {
			e.auditStart(startupErr.PID)
			e.auditStop(startupErr.PID)
		}
		return Result{}, err
	}
	e.auditStart(handle.PID())

	maxWait := time.Duration(e.cfg.Capture.SnapshotWaitCeiling) * time.Second
	limitBound := false
	if req.Limit > 0 && req.Limit < maxWait {
		maxWait = req.Limit
		limitBound = true
	}
	grace := time.Duration(e.cfg.Capture.ExitGracePeriod) * time.Second
	wait := e.monitor.Wait(ctx, req.OutputDir, req.ScenePrefix, maxWait, handle, grace)
	// Only the per-video limit marks a run as timed out; hitting the
	// global wait ceiling does not.
	timedOut := wait.CeilingHit && limitBound

	e.manager.Stop(handle)
	e.auditStop(handle.PID())

	result := Result{
		Frames:      wait.FramesDelta,
		Elapsed:     wait.Elapsed,
		AchievedFPS: achievedRate(wait.FramesDelta, wait.Elapsed),
		ExitCode:    handle.ExitCode(),
		TimedOut:    timedOut,
	}
	e.logger.Info("snapshot capture finished",
		logging.Int("frames", result.Frames),
		logging.Duration("elapsed", result.Elapsed),
		logging.Int("exit_code", result.ExitCode),
		logging.Bool("timed_out", result.TimedOut),
	)
	return result, nil
}

func (e *SnapshotEngine) auditStart(pid int) {
	if e.auditor == nil || pid <= 0 {
		return
	}
	if err := e.auditor.RegisterStart(pid); err != nil {
		e.logger.Warn("failed to audit process start", logging.Error(err))
	}
}

func (e *SnapshotEngine) auditStop(pid int) {
	if e.auditor == nil || pid <= 0 {
		return
	}
	if err := e.auditor.RegisterStop(pid); err != nil {
		e.logger.Warn("failed to audit process stop", logging.Error(err))
	}
}

func (e *SnapshotEngine) resolveSourceFPS(ctx context.Context, videoPath string) float64 {
	fps, err := e.prober(ctx, videoPath)
	if err != nil || fps <= 0 {
		fallback := e.cfg.Capture.FallbackSourceFPS
		e.logger.Warn("frame rate probe failed; using fallback",
			logging.Error(err),
			logging.Float64("fallback_fps", fallback),
		)
		return fallback
	}
	return fps
}

// buildArgs assembles the player argv in the contract order: media path,
// scene-filter configuration, common baseline flags, then caller extras.
func (e *SnapshotEngine) buildArgs(req Request, ratio int) []string {
	args := []string{
		req.Video,
		"--video-filter=scene",
		"--scene-format=png",
		"--scene-ratio=" + strconv.Itoa(ratio),
		"--scene-path=" + req.OutputDir,
		"--scene-prefix=" + req.ScenePrefix,
		"--intf=dummy",
		"--dummy-quiet",
		"--no-loop",
		"--no-repeat",
		"--play-and-exit",
	}
	if req.Limit > 0 {
		args = append(args, "--stop-time="+strconv.Itoa(int(req.Limit.Seconds())))
	}
	for _, extra := range req.ExtraArgs {
		if strings.TrimSpace(extra) == "" {
			e.logger.Warn("ignoring blank extra player argument")
			continue
		}
		args = append(args, extra)
	}
	return args
}
