// Package resume reads and writes the durable per-video outcome log that
// lets an interrupted batch skip already-handled videos on the next run.
//
// Two on-disk line forms are accepted on read: the current tab-separated
// record (timestamp, status, reason, path) and the legacy bare-path-per-line
// form whose presence alone means "already handled". New writes always use
// the tab-separated form. The file is append-only; records are never
// rewritten.
package resume

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"framegrab/internal/fsappend"
	"framegrab/internal/logging"
	"framegrab/internal/pathutil"
)

// Status is the terminal state recorded for one video.
type Status string

const (
	StatusProcessed         Status = "Processed"
	StatusTimedOutProcessed Status = "TimedOutProcessed"
	StatusSkipped           Status = "Skipped"
	StatusFailed            Status = "Failed"
)

// DefaultKind is the suffix used for the standard frame-extraction log.
const DefaultKind = "frames"

// Record is one parsed resume-log line, normalized from either on-disk form.
type Record struct {
	Timestamp time.Time
	Status    Status
	Reason    string
	Path      string
	Legacy    bool
}

// Log reads and appends the resume log at a fixed path.
type Log struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// PathFor returns the resume-log location for an output directory.
func PathFor(outputDir, kind string) string {
	if strings.TrimSpace(kind) == "" {
		kind = DefaultKind
	}
	return filepath.Join(outputDir, ".processed_"+kind+".txt")
}

// New constructs a resume log handle. The file need not exist yet.
func New(path string, logger *slog.Logger) *Log {
	return &Log{
		path:   path,
		logger: logging.NewComponentLogger(logger, "resume"),
		now:    time.Now,
	}
}

// Path returns the resume-log file location.
func (l *Log) Path() string {
	return l.path
}

// LoadHandledSet reads the whole file and returns the set of normalized
// paths already handled. A missing file yields an empty set. Malformed
// lines are logged and skipped; a damaged log must never block a resumable
// run.
func (l *Log) LoadHandledSet() (map[string]struct{}, error) {
	handled := make(map[string]struct{})
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		handled[rec.Path] = struct{}{}
	}
	return handled, nil
}

// Records parses every line of the log, tolerating both on-disk forms.
func (l *Log) Records() ([]Record, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open resume log: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, ok := l.parseLine(scanner.Text(), lineNo)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read resume log: %w", err)
	}
	return records, nil
}

func (l *Log) parseLine(line string, lineNo int) (Record, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Record{}, false
	}

	if !strings.Contains(line, "\t") {
		// Legacy form: a bare path, presence implies handled.
		return Record{Path: pathutil.Normalize(trimmed), Legacy: true}, true
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		l.logger.Warn("skipping malformed resume record",
			logging.Int("line", lineNo),
			logging.Int("fields", len(fields)),
		)
		return Record{}, false
	}
	rec := Record{
		Status: Status(strings.TrimSpace(fields[1])),
		Reason: strings.TrimSpace(fields[2]),
		Path:   pathutil.Normalize(strings.TrimSpace(strings.Join(fields[3:], "\t"))),
	}
	if rec.Path == "" {
		l.logger.Warn("skipping resume record with empty path", logging.Int("line", lineNo))
		return Record{}, false
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[0])); err == nil {
		rec.Timestamp = ts
	} else {
		l.logger.Warn("resume record has unparseable timestamp",
			logging.Int("line", lineNo),
			logging.Error(err),
		)
	}
	return rec, true
}

// Append durably records a video's terminal state in the tab-separated form.
func (l *Log) Append(videoPath string, status Status, reason string) error {
	normalized := pathutil.Normalize(videoPath)
	line := strings.Join([]string{
		l.now().UTC().Format(time.RFC3339),
		string(status),
		strings.ReplaceAll(strings.TrimSpace(reason), "\t", " "),
		normalized,
	}, "\t") + "\n"
	if err := fsappend.Append(l.path, []byte(line)); err != nil {
		return fmt.Errorf("append resume record: %w", err)
	}
	return nil
}
