// Package audit maintains the append-only registry of external-process
// start/stop events for one batch run. The registry is a diagnostic trail,
// not an input to resume logic: lines are never rewritten, and the file is
// recreated at the start of every run.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"framegrab/internal/fsappend"
)

const (
	eventStart = "START"
	eventStop  = "STOP"
)

// Registry records process lifecycle events for a single run.
type Registry struct {
	path string
	now  func() time.Time
}

// Initialize recreates the registry file for runID under outputDir, writing
// a header identifying the run.
func Initialize(outputDir, runID string) (*Registry, error) {
	path := filepath.Join(outputDir, ".pids_"+runID+".txt")
	reg := &Registry{path: path, now: time.Now}
	header := fmt.Sprintf("# framegrab process registry\n# run %s created %s\n",
		runID, reg.now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("create process registry: %w", err)
	}
	return reg, nil
}

// Path returns the registry file location.
func (r *Registry) Path() string {
	return r.path
}

// RegisterStart appends a START record for pid.
func (r *Registry) RegisterStart(pid int) error {
	return r.append(eventStart, pid)
}

// RegisterStop appends a STOP record for pid. When the registry file no
// longer exists there is nothing to audit and the call is a no-op.
func (r *Registry) RegisterStop(pid int) error {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil
	}
	return r.append(eventStop, pid)
}

func (r *Registry) append(event string, pid int) error {
	line := r.now().UTC().Format(time.RFC3339) + "\t" + event + "\t" + strconv.Itoa(pid) + "\n"
	return fsappend.Append(r.path, []byte(line))
}
