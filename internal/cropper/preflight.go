package cropper

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/services"
)

// Preflight verifies that a Python interpreter and the cropping tool's
// package dependencies are available before any video is processed.
type Preflight struct {
	cfg    *config.Config
	logger *slog.Logger

	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) error
}

// NewPreflight creates a preflight checker for the configured cropper.
func NewPreflight(cfg *config.Config, logger *slog.Logger) *Preflight {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Preflight{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "cropper")),
		lookPath: exec.LookPath,
		runCommand: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
			if output, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
			}
			return nil
		},
	}
}

// ResolveInterpreter returns the path of the Python interpreter to use.
// The configured binary is preferred; python3 and python are tried in
// that order when no binary is configured.
func (p *Preflight) ResolveInterpreter() (string, error) {
	candidates := []string{"python3", "python"}
	if configured := strings.TrimSpace(p.cfg.Cropper.PythonBinary); configured != "" {
		candidates = []string{configured}
	}

	for _, candidate := range candidates {
		resolved, err := p.lookPath(candidate)
		if err != nil {
			continue
		}
		p.logger.Debug("resolved python interpreter",
			logging.String("interpreter", resolved))
		return resolved, nil
	}

	return "", services.Wrap(services.ErrConfiguration, "cropper", "resolve interpreter",
		fmt.Sprintf("no Python interpreter found (tried %s); install Python 3 or set cropper.python_binary",
			strings.Join(candidates, ", ")), nil)
}

// EnsurePackages probes each required package with an import check.
// Missing packages are installed through pip when auto_install is set;
// otherwise the caller gets a configuration error naming the remediation.
func (p *Preflight) EnsurePackages(ctx context.Context, interpreter string) error {
	var missing []string
	for _, pkg := range p.cfg.Cropper.RequiredPackages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		if err := p.runCommand(ctx, interpreter, "-c", fmt.Sprintf("import %s", pkg)); err != nil {
			p.logger.Debug("package import probe failed",
				logging.String("package", pkg),
				logging.Error(err))
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if !p.cfg.Cropper.AutoInstall {
		return services.Wrap(services.ErrConfiguration, "cropper", "check packages",
			fmt.Sprintf("missing Python packages: %s; run %s -m pip install %s or enable cropper.auto_install",
				strings.Join(missing, ", "), interpreter, strings.Join(missing, " ")), nil)
	}

	for _, pkg := range missing {
		p.logger.Info("installing missing package", logging.String("package", pkg))
		if err := p.runCommand(ctx, interpreter, "-m", "pip", "install", pkg); err != nil {
			return services.Wrap(services.ErrConfiguration, "cropper", "install package",
				fmt.Sprintf("pip install %s failed", pkg), err)
		}
	}
	return nil
}
