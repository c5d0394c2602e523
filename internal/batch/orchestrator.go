package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"framegrab/internal/audit"
	"framegrab/internal/capture"
	"framegrab/internal/config"
	"framegrab/internal/cropper"
	"framegrab/internal/deps"
	"framegrab/internal/logging"
	"framegrab/internal/outcome"
	"framegrab/internal/pathutil"
	"framegrab/internal/process"
	"framegrab/internal/resume"
	"framegrab/internal/runctx"
	"framegrab/internal/services"
)

// Capture strategy names accepted by the orchestrator.
const (
	ModeSnapshot = "snapshot"
	ModeDesktop  = "desktop"
)

// Options carry the per-invocation knobs set by the CLI.
type Options struct {
	Mode      string
	TargetFPS float64
	// Limit bounds each video's capture wall-clock time. Zero means the
	// strategy's configured ceiling applies.
	Limit       time.Duration
	MaxVideos   int
	Restart     bool
	Crop        bool
	CropOptions cropper.Options
	ExtraArgs   []string
}

// CropRunner is the slice of the cropper the orchestrator drives.
type CropRunner interface {
	Invoke(ctx context.Context, inputDir string, opts cropper.Options) (cropper.Result, error)
}

// Orchestrator walks a batch of videos through capture, cropping, and the
// durable outcome record.
type Orchestrator struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	engine   capture.Engine
	crop     CropRunner
	registry *audit.Registry
	log      *resume.Log
	lock     *flock.Flock
}

// New builds an orchestrator for the given configuration and options.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	switch opts.Mode {
	case "", ModeSnapshot:
		opts.Mode = ModeSnapshot
	case ModeDesktop:
	default:
		return nil, services.Wrap(services.ErrValidation, "batch", "new",
			fmt.Sprintf("unknown capture mode %q", opts.Mode), nil)
	}
	return &Orchestrator{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "batch")),
	}, nil
}

// WithEngine overrides the capture engine. Intended for tests.
func (o *Orchestrator) WithEngine(engine capture.Engine) *Orchestrator {
	o.engine = engine
	return o
}

// WithCropRunner overrides the cropper. Intended for tests.
func (o *Orchestrator) WithCropRunner(runner CropRunner) *Orchestrator {
	o.crop = runner
	return o
}

// Run executes the batch and returns the run context with its final
// statistics. Setup errors abort the run; per-video failures are recorded
// and the batch continues.
func (o *Orchestrator) Run(ctx context.Context) (*runctx.RunContext, error) {
	run := runctx.New(o.cfg)
	ctx = services.WithRunID(ctx, run.RunID)
	logger := logging.WithContext(ctx, o.logger)

	if err := o.setup(ctx, run); err != nil {
		return run, err
	}
	defer o.teardown(logger)

	videos, err := Discover(o.cfg.Paths.SourceDir, o.cfg.Capture.VideoExtensions)
	if err != nil {
		return run, services.Wrap(services.ErrValidation, "batch", "discover",
			"list source videos", err)
	}
	run.Stats.Discovered = len(videos)
	logger.Info("batch starting",
		logging.Int("videos", len(videos)),
		logging.String("mode", o.opts.Mode),
		logging.String("output_dir", o.cfg.Paths.OutputDir))

	handled := map[string]struct{}{}
	if !o.opts.Restart {
		handled, err = o.log.LoadHandledSet()
		if err != nil {
			return run, services.Wrap(services.ErrValidation, "batch", "resume",
				"read resume log", err)
		}
	}

	captured := 0
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch interrupted", logging.Error(err))
			return run, services.Wrap(services.ErrInterrupted, "batch", "run", "run cancelled", err)
		}
		if o.opts.MaxVideos > 0 && captured >= o.opts.MaxVideos {
			logger.Info("video ceiling reached", logging.Int("max_videos", o.opts.MaxVideos))
			break
		}
		if _, ok := handled[pathutil.Normalize(video.Path)]; ok {
			run.Stats.Skipped++
			logger.Debug("skipping already handled video", logging.String(logging.FieldVideo, video.Path))
			continue
		}
		captured++
		o.processOne(ctx, run, video)
	}

	logger.Info("batch finished",
		logging.Int("processed", run.Stats.Processed),
		logging.Int("timed_out", run.Stats.TimedOut),
		logging.Int("skipped", run.Stats.Skipped),
		logging.Int("failed", run.Stats.Failed),
		logging.Int("frames_saved", run.Stats.FramesSaved))
	return run, nil
}

func (o *Orchestrator) setup(ctx context.Context, run *runctx.RunContext) error {
	info, err := os.Stat(o.cfg.Paths.SourceDir)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "batch", "setup",
			fmt.Sprintf("source directory %q does not exist", o.cfg.Paths.SourceDir), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			fmt.Sprintf("source path %q is not a directory", o.cfg.Paths.SourceDir), nil)
	}

	if err := o.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			"create output directories", err)
	}
	if err := checkWritable(o.cfg.Paths.OutputDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			fmt.Sprintf("output directory %q is not writable", o.cfg.Paths.OutputDir), err)
	}

	// Resolve once so the preflight check and the player launch agree on
	// the same binary.
	o.cfg.Capture.VLCBinary = deps.ResolveVLCPath(o.cfg.Capture.VLCBinary)
	if err := o.checkBinaries(); err != nil {
		return err
	}

	o.lock = flock.New(filepath.Join(o.cfg.Paths.OutputDir, ".framegrab.lock"))
	locked, err := o.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			"acquire output directory lock", err)
	}
	if !locked {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			fmt.Sprintf("another run already owns %q", o.cfg.Paths.OutputDir), nil)
	}

	registry, err := audit.Initialize(o.cfg.Paths.OutputDir, run.RunID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "setup",
			"initialize process registry", err)
	}
	o.registry = registry
	run.RegistryPath = registry.Path()

	o.log = resume.New(resume.PathFor(o.cfg.Paths.OutputDir, resume.DefaultKind), o.logger)

	if o.engine == nil {
		o.engine = o.buildEngine()
	}
	if o.crop == nil && o.opts.Crop && o.cfg.Cropper.Enabled {
		runner, err := o.buildCropRunner(ctx)
		if err != nil {
			return err
		}
		o.crop = runner
	}
	return nil
}

func (o *Orchestrator) buildEngine() capture.Engine {
	if o.opts.Mode == ModeDesktop {
		return capture.NewDesktopEngine(o.cfg, o.logger)
	}
	manager := process.NewManager(o.cfg, o.logger)
	monitor := capture.NewMonitor(
		time.Duration(o.cfg.Capture.PollIntervalMS)*time.Millisecond, o.logger)
	return capture.NewSnapshotEngine(o.cfg, manager, monitor, o.registry, o.logger)
}

func (o *Orchestrator) buildCropRunner(ctx context.Context) (CropRunner, error) {
	preflight := cropper.NewPreflight(o.cfg, o.logger)
	interpreter, err := preflight.ResolveInterpreter()
	if err != nil {
		return nil, err
	}
	if err := preflight.EnsurePackages(ctx, interpreter); err != nil {
		return nil, err
	}
	return cropper.NewInvoker(o.cfg, interpreter, o.logger), nil
}

// checkBinaries fails fast when a required external tool is missing. The
// desktop strategy captures the screen itself and only needs the cropper's
// interpreter.
func (o *Orchestrator) checkBinaries() error {
	requirements := deps.Requirements(o.cfg)
	if o.opts.Mode == ModeDesktop {
		filtered := requirements[:0]
		for _, req := range requirements {
			if req.Name == "VLC" || req.Name == "FFprobe" {
				continue
			}
			filtered = append(filtered, req)
		}
		requirements = filtered
	}
	missing := deps.MissingRequired(deps.CheckBinaries(requirements))
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrNotFound, "batch", "setup",
		fmt.Sprintf("missing required tools: %s; install them or point the config at their binaries",
			strings.Join(missing, ", ")), nil)
}

func (o *Orchestrator) processOne(ctx context.Context, run *runctx.RunContext, video VideoItem) {
	videoCtx := services.WithVideo(ctx, video.Path)
	logger := logging.WithContext(videoCtx, o.logger)

	result, err := o.engine.Capture(videoCtx, capture.Request{
		Video:       video.Path,
		OutputDir:   o.cfg.Paths.OutputDir,
		ScenePrefix: video.ScenePrefix,
		TargetFPS:   o.opts.TargetFPS,
		Limit:       o.opts.Limit,
		ExtraArgs:   o.opts.ExtraArgs,
	})
	if err != nil {
		logger.Warn("capture failed", logging.Error(err))
	}

	if o.crop != nil && result.Frames > 0 {
		if _, cropErr := o.crop.Invoke(videoCtx, o.cfg.Paths.OutputDir, o.opts.CropOptions); cropErr != nil {
			// Cropper failures never change the capture outcome.
			logger.Warn("cropper failed", logging.Error(cropErr))
		}
	}

	resolved := o.record(logger, run, video, result, err != nil)
	logger.Info("video finished",
		logging.String("status", string(resolved)),
		logging.Int("frames", result.Frames),
		logging.Duration("elapsed", result.Elapsed),
		logging.Float64("achieved_fps", result.AchievedFPS))
}

func (o *Orchestrator) record(logger *slog.Logger, run *runctx.RunContext, video VideoItem, result capture.Result, hadErrors bool) resume.Status {
	out := outcome.Resolve(result.Frames > 0, result.ExitCode, result.TimedOut, hadErrors)

	var status resume.Status
	switch {
	case out.Reason == outcome.ReasonTimedOutProcessed:
		status = resume.StatusTimedOutProcessed
		run.Stats.TimedOut++
	case out.Processed:
		status = resume.StatusProcessed
		run.Stats.Processed++
	default:
		status = resume.StatusFailed
		run.Stats.Failed++
	}
	run.Stats.FramesSaved += result.Frames

	if err := o.log.Append(video.Path, status, string(out.Reason)); err != nil {
		logger.Error("record outcome", logging.Error(err))
	}
	return status
}

func (o *Orchestrator) teardown(logger *slog.Logger) {
	if o.lock != nil {
		if err := o.lock.Unlock(); err != nil {
			logger.Warn("release output directory lock", logging.Error(err))
		}
	}
}

func checkWritable(dir string) error {
	probe, err := os.CreateTemp(dir, ".framegrab-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
