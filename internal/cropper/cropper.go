package cropper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"time"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/services"
)

// Options select the optional flags forwarded to the cropping tool.
type Options struct {
	Reprocess    bool
	KeepExisting bool
	Debug        bool
}

// Result describes a completed cropper invocation.
type Result struct {
	ExitCode int
	Elapsed  time.Duration
}

// Invoker runs the external cropping tool over a directory of frames.
type Invoker struct {
	cfg         *config.Config
	interpreter string
	logger      *slog.Logger

	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewInvoker creates an invoker bound to a resolved interpreter.
func NewInvoker(cfg *config.Config, interpreter string, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Invoker{
		cfg:            cfg,
		interpreter:    interpreter,
		logger:         logger.With(logging.String(logging.FieldComponent, "cropper")),
		commandContext: exec.CommandContext,
	}
}

// Invoke runs the cropping tool against inputDir. The child inherits the
// parent's stdio and runs in its own process group; an interrupt received
// while the tool runs is forwarded to that group. A non-zero exit is
// returned as an error alongside the result.
func (i *Invoker) Invoke(ctx context.Context, inputDir string, opts Options) (Result, error) {
	if i.cfg.Cropper.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(i.cfg.Cropper.Timeout)*time.Second)
		defer cancel()
	}

	args := i.buildArgs(inputDir, opts)
	cmd := i.commandContext(ctx, i.interpreter, args...) //nolint:gosec
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setProcessGroup(cmd)

	i.logger.Info("starting cropper",
		logging.String("interpreter", i.interpreter),
		logging.String("input_dir", inputDir),
		logging.String("args", strings.Join(args, " ")))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrExternalTool, "cropper", "start",
			"launch cropping tool", err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	forwarderDone := make(chan struct{})
	go func() {
		defer close(forwarderDone)
		for sig := range interrupts {
			i.logger.Warn("forwarding interrupt to cropper",
				logging.Int("pid", cmd.Process.Pid))
			interruptGroup(cmd.Process.Pid, sig)
		}
	}()
	defer func() {
		signal.Stop(interrupts)
		close(interrupts)
		<-forwarderDone
	}()

	waitErr := cmd.Wait()
	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Elapsed:  time.Since(start),
	}

	switch {
	case waitErr == nil:
		i.logger.Info("cropper finished",
			logging.Duration("elapsed", result.Elapsed))
		return result, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return result, services.Wrap(services.ErrTimeout, "cropper", "run",
			"cropping tool exceeded configured timeout", waitErr)
	case interrupted(result.ExitCode, waitErr):
		return result, services.Wrap(services.ErrInterrupted, "cropper", "run",
			"cropping tool interrupted", waitErr)
	default:
		return result, services.Wrap(services.ErrExternalTool, "cropper", "run",
			"cropping tool failed", waitErr)
	}
}

func (i *Invoker) buildArgs(inputDir string, opts Options) []string {
	var args []string
	if script := strings.TrimSpace(i.cfg.Cropper.ScriptPath); script != "" {
		args = append(args, script)
	} else {
		args = append(args, "-m", i.cfg.Cropper.ModuleName)
	}
	args = append(args, inputDir,
		"--skip-bad-images",
		"--allow-empty",
		"--recurse",
		"--preserve-alpha")
	if opts.Reprocess {
		args = append(args, "--reprocess")
	}
	if opts.KeepExisting {
		args = append(args, "--keep-existing")
	}
	if opts.Debug {
		args = append(args, "--debug")
	}
	return args
}

// interrupted recognizes the conventional interrupt exits: 128+SIGINT as
// reported by shells, and -1 when the process died to an uncaught signal.
func interrupted(exitCode int, waitErr error) bool {
	if exitCode == 130 || exitCode == -1 {
		var exitErr *exec.ExitError
		return errors.As(waitErr, &exitErr)
	}
	return false
}
