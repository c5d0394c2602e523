package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeCropper()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SourceDir) != "" {
		if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
			return fmt.Errorf("paths.source_dir: %w", err)
		}
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	if strings.TrimSpace(c.Capture.VLCBinary) == "" {
		c.Capture.VLCBinary = defaultVLCBinary
	}
	if strings.TrimSpace(c.Capture.FFprobeBinary) == "" {
		c.Capture.FFprobeBinary = defaultFFprobeBinary
	}
	exts := make([]string, 0, len(c.Capture.VideoExtensions))
	for _, ext := range c.Capture.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		exts = append(exts, ext)
	}
	c.Capture.VideoExtensions = exts
}

func (c *Config) normalizeCropper() {
	c.Cropper.PythonBinary = strings.TrimSpace(c.Cropper.PythonBinary)
	if c.Cropper.PythonBinary == "" {
		c.Cropper.PythonBinary = defaultPythonBinary
	}
	c.Cropper.ScriptPath = strings.TrimSpace(c.Cropper.ScriptPath)
	c.Cropper.ModuleName = strings.TrimSpace(c.Cropper.ModuleName)
	packages := make([]string, 0, len(c.Cropper.RequiredPackages))
	for _, pkg := range c.Cropper.RequiredPackages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		packages = append(packages, pkg)
	}
	c.Cropper.RequiredPackages = packages
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
