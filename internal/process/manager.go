// Package process supervises the external capture player: bounded startup
// watchdog, diagnostic capture on early failure, and graceful-then-forced
// teardown. All waits are poll loops with sleep; the only goroutine is the
// reaper that collects the child's exit status, and it touches nothing but
// the handle's own state.
package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/services"
)

// StartupError reports a capture process that exited before the startup
// watchdog timeout.
type StartupError struct {
	Binary   string
	PID      int
	ExitCode int
	Stderr   string
}

func (e *StartupError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = "no diagnostic output"
	}
	return fmt.Sprintf("%s exited with code %d during startup: %s", e.Binary, e.ExitCode, detail)
}

// Handle wraps a supervised external process.
type Handle struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer

	mu       sync.Mutex
	done     chan struct{}
	exitCode int
}

// PID returns the child's process identifier.
func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Running reports whether the child has not yet been reaped.
func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the child's exit code, or -1 while it is still running.
func (h *Handle) ExitCode() int {
	if h.Running() {
		return -1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// StderrText returns the captured error stream. Only read after the process
// has exited; the reaper goroutine owns the buffer until then.
func (h *Handle) StderrText() string {
	if h.Running() {
		return ""
	}
	return h.stderr.String()
}

func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.mu.Lock()
	if err == nil {
		h.exitCode = 0
	} else if exit, ok := err.(*exec.ExitError); ok {
		h.exitCode = exit.ExitCode()
	} else {
		h.exitCode = -1
	}
	h.mu.Unlock()
	close(h.done)
}

// Manager starts and stops supervised external processes.
type Manager struct {
	pollInterval time.Duration
	gracefulWait time.Duration
	forcedWait   time.Duration
	logger       *slog.Logger
}

// NewManager constructs a manager from the configured wait windows.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		pollInterval: time.Duration(cfg.Capture.PollIntervalMS) * time.Millisecond,
		gracefulWait: time.Duration(cfg.Shutdown.GracefulWait) * time.Second,
		forcedWait:   time.Duration(cfg.Shutdown.ForcedWait) * time.Second,
		logger:       logging.NewComponentLogger(logger, "process"),
	}
}

// Start launches binary with args and watches it until startupTimeout. A
// child that exits non-zero within the window yields a StartupError carrying
// its captured stderr. A child still running at the timeout is returned as
// healthy; the capture monitor takes over from there.
func (m *Manager) Start(ctx context.Context, binary string, args []string, startupTimeout time.Duration) (*Handle, error) {
	handle := &Handle{
		cmd:  exec.Command(binary, args...),
		done: make(chan struct{}),
	}
	handle.cmd.Stdout = &handle.stdout
	handle.cmd.Stderr = &handle.stderr

	if err := handle.cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "process", "start "+binary,
			"failed to launch capture process", err)
	}
	go handle.reap()

	m.logger.Debug("capture process launched",
		logging.String("binary", binary),
		logging.Int("pid", handle.PID()),
	)

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		if !handle.Running() {
			code := handle.ExitCode()
			if code != 0 {
				return nil, &StartupError{Binary: binary, PID: handle.PID(), ExitCode: code, Stderr: handle.StderrText()}
			}
			// Clean early exit: the player finished before the watchdog
			// window closed. Callers treat this like a healthy handle whose
			// process already stopped.
			return handle, nil
		}
		if err := m.sleep(ctx); err != nil {
			m.Stop(handle)
			return nil, err
		}
	}
	return handle, nil
}

// Stop tears the process down: graceful close signal, bounded wait, forced
// kill, bounded wait. Never returns an error; teardown must not prevent the
// batch from moving to the next video.
func (m *Manager) Stop(handle *Handle) {
	if handle == nil || handle.cmd == nil || handle.cmd.Process == nil {
		return
	}
	if !handle.Running() {
		return
	}

	pid := handle.PID()
	if err := handle.cmd.Process.Signal(os.Interrupt); err != nil {
		m.logger.Debug("graceful close signal failed", logging.Int("pid", pid), logging.Error(err))
	}
	if m.pollUntilExit(handle, m.gracefulWait) {
		m.logger.Debug("process exited gracefully", logging.Int("pid", pid))
		return
	}

	if err := handle.cmd.Process.Kill(); err != nil {
		m.logger.Debug("force kill failed", logging.Int("pid", pid), logging.Error(err))
	}
	if !m.pollUntilExit(handle, m.forcedWait) {
		m.logger.Warn("process survived forced termination",
			logging.Int("pid", pid),
		)
	}
}

func (m *Manager) pollUntilExit(handle *Handle, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if !handle.Running() {
			return true
		}
		time.Sleep(m.pollInterval)
	}
	return !handle.Running()
}

func (m *Manager) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.pollInterval):
		return nil
	}
}
