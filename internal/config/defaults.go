package config

const (
	defaultOutputDir           = "~/.local/share/framegrab/frames"
	defaultLogDir              = "~/.local/share/framegrab/logs"
	defaultPollIntervalMS      = 500
	defaultSnapshotWaitCeiling = 300
	defaultExitGracePeriod     = 3
	defaultStartupTimeout      = 10
	defaultFallbackSourceFPS   = 30.0
	defaultDesktopDuration     = 60
	defaultVLCBinary           = "vlc"
	defaultFFprobeBinary       = "ffprobe"
	defaultGracefulWait        = 5
	defaultForcedWait          = 3
	defaultPythonBinary        = "python3"
	defaultCropperModule       = "crop_colours"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Capture: Capture{
			PollIntervalMS:      defaultPollIntervalMS,
			SnapshotWaitCeiling: defaultSnapshotWaitCeiling,
			ExitGracePeriod:     defaultExitGracePeriod,
			StartupTimeout:      defaultStartupTimeout,
			FallbackSourceFPS:   defaultFallbackSourceFPS,
			VideoExtensions:     []string{".mp4", ".mkv", ".avi", ".mov", ".webm"},
			DesktopDuration:     defaultDesktopDuration,
			VLCBinary:           defaultVLCBinary,
			FFprobeBinary:       defaultFFprobeBinary,
		},
		Shutdown: Shutdown{
			GracefulWait: defaultGracefulWait,
			ForcedWait:   defaultForcedWait,
		},
		Cropper: Cropper{
			Enabled:          true,
			PythonBinary:     defaultPythonBinary,
			ModuleName:       defaultCropperModule,
			RequiredPackages: []string{"PIL", "numpy"},
			AutoInstall:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
