package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeSourceFPS asks ffprobe for the first video stream's average frame
// rate. Callers fall back to a configured default when the probe fails; the
// result only scales the snapshot ratio and precision is not required.
func ProbeSourceFPS(ctx context.Context, ffprobeBinary, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobeBinary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseFrameRate(strings.TrimSpace(string(output)))
}

// parseFrameRate handles ffprobe's rational "30000/1001" form as well as a
// plain decimal.
func parseFrameRate(raw string) (float64, error) {
	if raw == "" || raw == "0/0" {
		return 0, fmt.Errorf("no frame rate reported")
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", raw, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("parse frame rate %q: bad denominator", raw)
		}
		return n / d, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", raw, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("non-positive frame rate %q", raw)
	}
	return value, nil
}
