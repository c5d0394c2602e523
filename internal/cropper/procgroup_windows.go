//go:build windows

package cropper

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func interruptGroup(pid int, sig os.Signal) {
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}
