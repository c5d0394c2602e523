package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"framegrab/internal/capture"
	"framegrab/internal/config"
	"framegrab/internal/cropper"
	"framegrab/internal/logging"
	"framegrab/internal/resume"
	"framegrab/internal/services"
	"framegrab/internal/testsupport"
)

type fakeEngine struct {
	requests []capture.Request
	results  map[string]capture.Result
	errs     map[string]error
}

func (f *fakeEngine) Capture(_ context.Context, req capture.Request) (capture.Result, error) {
	f.requests = append(f.requests, req)
	name := filepath.Base(req.Video)
	return f.results[name], f.errs[name]
}

type fakeCropRunner struct {
	calls []string
	err   error
}

func (f *fakeCropRunner) Invoke(_ context.Context, inputDir string, _ cropper.Options) (cropper.Result, error) {
	f.calls = append(f.calls, inputDir)
	if f.err != nil {
		return cropper.Result{ExitCode: 1}, f.err
	}
	return cropper.Result{}, nil
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, opts Options, engine capture.Engine) *Orchestrator {
	t.Helper()
	orch, err := New(cfg, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch.WithEngine(engine)
}

func records(t *testing.T, cfg *config.Config) []resume.Record {
	t.Helper()
	log := resume.New(resume.PathFor(cfg.Paths.OutputDir, resume.DefaultKind), logging.NewNop())
	recs, err := log.Records()
	if err != nil {
		t.Fatalf("read resume log: %v", err)
	}
	return recs
}

func TestRunProcessesDiscoveredVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "a.mp4"))
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "b.mp4"))

	engine := &fakeEngine{results: map[string]capture.Result{
		"a.mp4": {Frames: 3, ExitCode: 0},
		"b.mp4": {Frames: 2, ExitCode: 0},
	}}
	orch := newTestOrchestrator(t, cfg, Options{TargetFPS: 2}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stats.Discovered != 2 || run.Stats.Processed != 2 || run.Stats.FramesSaved != 5 {
		t.Fatalf("stats = %+v, want 2 discovered, 2 processed, 5 frames", run.Stats)
	}
	if len(engine.requests) != 2 {
		t.Fatalf("engine called %d times, want 2", len(engine.requests))
	}
	if engine.requests[0].ScenePrefix != "a_" {
		t.Fatalf("scene prefix = %q, want a_", engine.requests[0].ScenePrefix)
	}

	recs := records(t, cfg)
	if len(recs) != 2 {
		t.Fatalf("resume log has %d records, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.Status != resume.StatusProcessed {
			t.Fatalf("record %+v, want Processed", rec)
		}
	}
}

func TestRunSkipsHandledVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	done := filepath.Join(cfg.Paths.SourceDir, "done.mp4")
	fresh := filepath.Join(cfg.Paths.SourceDir, "fresh.mp4")
	testsupport.WriteVideo(t, done)
	testsupport.WriteVideo(t, fresh)

	log := resume.New(resume.PathFor(cfg.Paths.OutputDir, resume.DefaultKind), logging.NewNop())
	if err := log.Append(done, resume.StatusProcessed, "Processed"); err != nil {
		t.Fatalf("seed resume log: %v", err)
	}

	engine := &fakeEngine{results: map[string]capture.Result{"fresh.mp4": {Frames: 1}}}
	orch := newTestOrchestrator(t, cfg, Options{}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stats.Skipped != 1 || run.Stats.Processed != 1 {
		t.Fatalf("stats = %+v, want 1 skipped, 1 processed", run.Stats)
	}
	if len(engine.requests) != 1 || filepath.Base(engine.requests[0].Video) != "fresh.mp4" {
		t.Fatalf("engine requests = %+v, want only fresh.mp4", engine.requests)
	}
}

func TestRunRestartIgnoresResumeLog(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	video := filepath.Join(cfg.Paths.SourceDir, "done.mp4")
	testsupport.WriteVideo(t, video)

	log := resume.New(resume.PathFor(cfg.Paths.OutputDir, resume.DefaultKind), logging.NewNop())
	if err := log.Append(video, resume.StatusProcessed, "Processed"); err != nil {
		t.Fatalf("seed resume log: %v", err)
	}

	engine := &fakeEngine{results: map[string]capture.Result{"done.mp4": {Frames: 1}}}
	orch := newTestOrchestrator(t, cfg, Options{Restart: true}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stats.Skipped != 0 || len(engine.requests) != 1 {
		t.Fatalf("stats = %+v with %d requests, want restart to reprocess", run.Stats, len(engine.requests))
	}
}

func TestRunHonorsVideoCeiling(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, name))
	}

	engine := &fakeEngine{results: map[string]capture.Result{
		"a.mp4": {Frames: 1}, "b.mp4": {Frames: 1}, "c.mp4": {Frames: 1},
	}}
	orch := newTestOrchestrator(t, cfg, Options{MaxVideos: 2}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(engine.requests) != 2 {
		t.Fatalf("engine called %d times, want 2", len(engine.requests))
	}
	if run.Stats.Processed != 2 {
		t.Fatalf("stats = %+v, want 2 processed", run.Stats)
	}
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "bad.mp4"))
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "good.mp4"))

	engine := &fakeEngine{
		results: map[string]capture.Result{
			"bad.mp4":  {ExitCode: 1},
			"good.mp4": {Frames: 4},
		},
		errs: map[string]error{
			"bad.mp4": services.Wrap(services.ErrExternalTool, "capture", "start", "player refused", nil),
		},
	}
	orch := newTestOrchestrator(t, cfg, Options{}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stats.Failed != 1 || run.Stats.Processed != 1 {
		t.Fatalf("stats = %+v, want 1 failed, 1 processed", run.Stats)
	}

	recs := records(t, cfg)
	var failed *resume.Record
	for i := range recs {
		if recs[i].Status == resume.StatusFailed {
			failed = &recs[i]
		}
	}
	if failed == nil {
		t.Fatalf("no Failed record in %+v", recs)
	}
	if failed.Reason != "NoFrames" {
		t.Fatalf("failed reason = %q, want NoFrames", failed.Reason)
	}
}

func TestRunTimedOutCountsAsProcessed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "long.mp4"))

	engine := &fakeEngine{results: map[string]capture.Result{
		"long.mp4": {Frames: 10, TimedOut: true},
	}}
	orch := newTestOrchestrator(t, cfg, Options{}, engine)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stats.TimedOut != 1 || run.Stats.Processed != 0 {
		t.Fatalf("stats = %+v, want 1 timed out", run.Stats)
	}
	recs := records(t, cfg)
	if len(recs) != 1 || recs[0].Status != resume.StatusTimedOutProcessed {
		t.Fatalf("records = %+v, want one TimedOutProcessed", recs)
	}
}

func TestRunCropperFailureKeepsOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "a.mp4"))

	engine := &fakeEngine{results: map[string]capture.Result{"a.mp4": {Frames: 2}}}
	crop := &fakeCropRunner{err: errors.New("cropper exploded")}
	orch := newTestOrchestrator(t, cfg, Options{Crop: true}, engine).WithCropRunner(crop)

	run, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(crop.calls) != 1 {
		t.Fatalf("cropper called %d times, want 1", len(crop.calls))
	}
	if run.Stats.Processed != 1 || run.Stats.Failed != 0 {
		t.Fatalf("stats = %+v, cropper failure should not fail the video", run.Stats)
	}
}

func TestRunCropperSkippedWithoutFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "a.mp4"))

	engine := &fakeEngine{results: map[string]capture.Result{"a.mp4": {}}}
	crop := &fakeCropRunner{}
	orch := newTestOrchestrator(t, cfg, Options{Crop: true}, engine).WithCropRunner(crop)

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(crop.calls) != 0 {
		t.Fatalf("cropper called for a zero-frame video")
	}
}

func TestRunMissingSourceDirIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Paths.SourceDir = filepath.Join(cfg.Paths.SourceDir, "absent")

	orch := newTestOrchestrator(t, cfg, Options{}, &fakeEngine{})
	_, err := orch.Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("missing source dir should be fatal")
	}
}

func TestRunRefusesLockedOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteVideo(t, filepath.Join(cfg.Paths.SourceDir, "a.mp4"))

	held := flock.New(filepath.Join(cfg.Paths.OutputDir, ".framegrab.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	orch := newTestOrchestrator(t, cfg, Options{}, &fakeEngine{})
	if _, err := orch.Run(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for held lock, got %v", err)
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(cfg, Options{Mode: "teleport"}, logging.NewNop()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
