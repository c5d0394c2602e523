package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateShutdown(); err != nil {
		return err
	}
	if err := c.validateCropper(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	if err := ensurePositiveMap(map[string]int{
		"capture.poll_interval_ms":      c.Capture.PollIntervalMS,
		"capture.snapshot_wait_ceiling": c.Capture.SnapshotWaitCeiling,
		"capture.exit_grace_period":     c.Capture.ExitGracePeriod,
		"capture.startup_timeout":       c.Capture.StartupTimeout,
		"capture.desktop_duration":      c.Capture.DesktopDuration,
	}); err != nil {
		return err
	}
	if c.Capture.FallbackSourceFPS <= 0 {
		return errors.New("capture.fallback_source_fps must be positive")
	}
	if len(c.Capture.VideoExtensions) == 0 {
		return errors.New("capture.video_extensions must list at least one extension")
	}
	for _, ext := range c.Capture.VideoExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("capture.video_extensions entry %q must begin with a dot", ext)
		}
	}
	return nil
}

func (c *Config) validateShutdown() error {
	return ensurePositiveMap(map[string]int{
		"shutdown.graceful_wait": c.Shutdown.GracefulWait,
		"shutdown.forced_wait":   c.Shutdown.ForcedWait,
	})
}

func (c *Config) validateCropper() error {
	if !c.Cropper.Enabled {
		return nil
	}
	if c.Cropper.ScriptPath == "" && c.Cropper.ModuleName == "" {
		return errors.New("cropper.script_path or cropper.module_name must be set when cropper.enabled is true")
	}
	if c.Cropper.Timeout < 0 {
		return errors.New("cropper.timeout must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
