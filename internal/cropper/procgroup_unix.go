//go:build unix

package cropper

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in its own process group so a forwarded
// interrupt reaches the tool and any workers it forks, without bouncing
// back to this process.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func interruptGroup(pid int, sig os.Signal) {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		_ = unix.Kill(pid, unix.SIGINT)
		return
	}
	signo := unix.SIGINT
	if s, ok := sig.(syscall.Signal); ok {
		signo = s
	}
	_ = unix.Kill(-pgid, signo)
}
