package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VideoItem is one discovered candidate: an absolute path plus the scene
// prefix that namespaces its frames in the shared output directory.
type VideoItem struct {
	Path        string
	ScenePrefix string
}

// Discover lists the videos directly under sourceDir whose extension is on
// the allow-list, sorted by name. Subdirectories are not descended into.
func Discover(sourceDir string, extensions []string) ([]VideoItem, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}

	var items []VideoItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := allowed[ext]; !ok {
			continue
		}
		absolute, err := filepath.Abs(filepath.Join(sourceDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry.Name(), err)
		}
		items = append(items, VideoItem{
			Path:        absolute,
			ScenePrefix: ScenePrefix(entry.Name()),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// ScenePrefix derives the output-frame prefix from a video filename. The
// trailing underscore keeps "clip1" from matching frames of "clip10".
func ScenePrefix(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return stem + "_"
}
