// Package deps reports the availability of the external tools framegrab
// drives: the VLC player, ffprobe, and the Python interpreter hosting the
// cropping tool.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"framegrab/internal/config"
)

// Requirement defines an external dependency framegrab relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the dependency list for the given configuration.
// The cropper interpreter is only listed when the cropper is enabled.
func Requirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "VLC",
			Command:     ResolveVLCPath(cfg.Capture.VLCBinary),
			Description: "Required for snapshot capture",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Capture.FFprobeBinary,
			Description: "Required for source frame-rate probing",
			Optional:    true,
		},
	}
	if cfg.Cropper.Enabled {
		command := strings.TrimSpace(cfg.Cropper.PythonBinary)
		if command == "" {
			command = "python3"
		}
		requirements = append(requirements, Requirement{
			Name:        "Python",
			Command:     command,
			Description: "Required for the cropping tool",
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of required dependencies that are
// unavailable.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
