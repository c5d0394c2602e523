package deps

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// darwinVLCPath is where the standard VLC.app bundle keeps its binary.
// VLC on macOS installs as an app bundle and never lands on PATH.
const darwinVLCPath = "/Applications/VLC.app/Contents/MacOS/VLC"

// ResolveVLCPath reports the VLC binary framegrab will execute. An explicit
// configuration wins; a blank value or the bare command name "vlc" (the
// config default) is resolved from PATH, with the macOS app-bundle location
// as a fallback.
func ResolveVLCPath(configured string) string {
	if binary := strings.TrimSpace(configured); binary != "" && binary != "vlc" {
		return binary
	}
	if resolved, err := exec.LookPath("vlc"); err == nil {
		return resolved
	}
	if runtime.GOOS == "darwin" {
		if info, err := os.Stat(darwinVLCPath); err == nil && isExecutable(info) {
			return darwinVLCPath
		}
	}
	return "vlc"
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
