package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framegrab/internal/config"
)

func TestLoadWithoutFileAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "framegrab", "frames")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Capture.PollIntervalMS != 500 {
		t.Fatalf("unexpected poll interval: %d", cfg.Capture.PollIntervalMS)
	}
	if cfg.Capture.FallbackSourceFPS != 30.0 {
		t.Fatalf("unexpected fallback fps: %v", cfg.Capture.FallbackSourceFPS)
	}
	if cfg.Capture.VLCBinary != "vlc" {
		t.Fatalf("unexpected vlc binary: %q", cfg.Capture.VLCBinary)
	}
	if !cfg.Cropper.Enabled || !cfg.Cropper.AutoInstall {
		t.Fatalf("expected cropper enabled with auto install by default: %+v", cfg.Cropper)
	}
	if cfg.Cropper.ModuleName != "crop_colours" {
		t.Fatalf("unexpected cropper module: %q", cfg.Cropper.ModuleName)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framegrab.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		"[capture]",
		"poll_interval_ms = 250",
		`video_extensions = [" .MP4 ", ".mkv"]`,
		"[cropper]",
		`python_binary = "  "`,
		`required_packages = ["PIL", " ", "numpy"]`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Capture.PollIntervalMS != 250 {
		t.Fatalf("unexpected poll interval: %d", cfg.Capture.PollIntervalMS)
	}
	if got := cfg.Capture.VideoExtensions; len(got) != 2 || got[0] != ".mp4" || got[1] != ".mkv" {
		t.Fatalf("extensions not normalized: %v", got)
	}
	if cfg.Cropper.PythonBinary != "python3" {
		t.Fatalf("expected blank python binary to fall back, got %q", cfg.Cropper.PythonBinary)
	}
	if got := cfg.Cropper.RequiredPackages; len(got) != 2 {
		t.Fatalf("expected blank package entries dropped: %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero poll interval", func(c *config.Config) { c.Capture.PollIntervalMS = 0 }},
		{"negative fallback fps", func(c *config.Config) { c.Capture.FallbackSourceFPS = -1 }},
		{"no extensions", func(c *config.Config) { c.Capture.VideoExtensions = nil }},
		{"extension without dot", func(c *config.Config) { c.Capture.VideoExtensions = []string{"mp4"} }},
		{"zero graceful wait", func(c *config.Config) { c.Shutdown.GracefulWait = 0 }},
		{"cropper without target", func(c *config.Config) {
			c.Cropper.Enabled = true
			c.Cropper.ScriptPath = ""
			c.Cropper.ModuleName = ""
		}},
		{"negative cropper timeout", func(c *config.Config) { c.Cropper.Timeout = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[capture]") {
		t.Fatalf("sample config missing capture section")
	}
}
