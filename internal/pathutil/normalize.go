// Package pathutil canonicalizes file paths for stable comparison across
// runs. Resume detection depends on two renderings of the same path mapping
// to one key, including case differences on hosts whose filesystems ignore
// case.
package pathutil

import (
	"path/filepath"
	"runtime"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// Normalize returns the canonical comparison form of path: absolute,
// cleaned, NFC-normalized, and case-folded on case-insensitive hosts.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	} else {
		path = filepath.Clean(path)
	}
	path = norm.NFC.String(path)
	if caseInsensitiveHost() {
		path = foldCaser.String(path)
	}
	return path
}

func caseInsensitiveHost() bool {
	switch runtime.GOOS {
	case "windows", "darwin":
		return true
	default:
		return false
	}
}

// Equal reports whether two paths normalize to the same key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
