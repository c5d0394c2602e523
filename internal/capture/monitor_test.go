package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"framegrab/internal/logging"
)

type fakeProcess struct {
	running atomic.Bool
}

func (f *fakeProcess) Running() bool { return f.running.Load() }

func writeFrame(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestWaitCountsOnlyNewMatchingFrames(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "scene00001.png") // pre-existing
	writeFrame(t, dir, "other00001.png") // different prefix

	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())
	proc := &fakeProcess{}
	proc.running.Store(true)

	go func() {
		time.Sleep(30 * time.Millisecond)
		writeFrame(t, dir, "scene00002.png")
		writeFrame(t, dir, "scene00003.png")
		writeFrame(t, dir, "other00002.png")
		proc.running.Store(false)
	}()

	result := monitor.Wait(context.Background(), dir, "scene", 2*time.Second, proc, 50*time.Millisecond)
	if result.FramesDelta != 2 {
		t.Fatalf("expected 2 new matching frames, got %d", result.FramesDelta)
	}
	if result.CeilingHit {
		t.Fatal("expected early stop via process exit, not ceiling")
	}
}

func TestWaitStopsAfterGracePeriodOnExit(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())
	proc := &fakeProcess{} // already exited

	start := time.Now()
	result := monitor.Wait(context.Background(), dir, "scene", 5*time.Second, proc, 100*time.Millisecond)
	elapsed := time.Since(start)

	if result.FramesDelta != 0 {
		t.Fatalf("expected zero frames, got %d", result.FramesDelta)
	}
	if elapsed >= 5*time.Second {
		t.Fatalf("expected grace-period early stop, waited %v", elapsed)
	}
	if elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least the grace period to drain, waited %v", elapsed)
	}
}

func TestWaitCatchesFramesLandingDuringGrace(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())
	proc := &fakeProcess{}

	go func() {
		time.Sleep(20 * time.Millisecond)
		writeFrame(t, dir, "scene-buffered.png")
	}()

	result := monitor.Wait(context.Background(), dir, "scene", 5*time.Second, proc, 150*time.Millisecond)
	if result.FramesDelta != 1 {
		t.Fatalf("expected buffered frame to be counted, got %d", result.FramesDelta)
	}
}

func TestWaitWithoutHandleRunsFullCeiling(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())

	start := time.Now()
	result := monitor.Wait(context.Background(), dir, "scene", 120*time.Millisecond, nil, time.Second)
	if elapsed := time.Since(start); elapsed < 120*time.Millisecond {
		t.Fatalf("expected full ceiling wait, got %v", elapsed)
	}
	if result.FramesDelta != 0 {
		t.Fatalf("expected zero frames, got %d", result.FramesDelta)
	}
}

func TestWaitCeilingHitWhileProcessAlive(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())
	proc := &fakeProcess{}
	proc.running.Store(true)

	result := monitor.Wait(context.Background(), dir, "scene", 80*time.Millisecond, proc, time.Second)
	if !result.CeilingHit {
		t.Fatal("expected ceiling hit with process still running")
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(10*time.Millisecond, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	monitor.Wait(ctx, dir, "scene", 10*time.Second, nil, time.Second)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancellation did not stop the wait promptly: %v", elapsed)
	}
}
