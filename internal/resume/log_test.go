package resume

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framegrab/internal/logging"
	"framegrab/internal/pathutil"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), ".processed_frames.txt"), logging.NewNop())
}

func TestLoadHandledSetMissingFile(t *testing.T) {
	log := newTestLog(t)
	handled, err := log.LoadHandledSet()
	if err != nil {
		t.Fatalf("LoadHandledSet: %v", err)
	}
	if len(handled) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(handled))
	}
}

func TestAppendThenLoadRoundTrip(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append("/videos/a.mp4", StatusProcessed, ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append("/videos/b.mp4", StatusFailed, "NoFrames"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	handled, err := log.LoadHandledSet()
	if err != nil {
		t.Fatalf("LoadHandledSet: %v", err)
	}
	for _, want := range []string{"/videos/a.mp4", "/videos/b.mp4"} {
		if _, ok := handled[pathutil.Normalize(want)]; !ok {
			t.Fatalf("expected %q in handled set, got %v", want, handled)
		}
	}
}

func TestMixedFormsInOneFile(t *testing.T) {
	log := newTestLog(t)
	legacy := "/videos/legacy.mp4\n"
	if err := os.WriteFile(log.Path(), []byte(legacy), 0o644); err != nil {
		t.Fatalf("seed legacy line: %v", err)
	}
	if err := log.Append("/videos/current.mp4", StatusTimedOutProcessed, "TimedOutProcessed"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	handled, err := log.LoadHandledSet()
	if err != nil {
		t.Fatalf("LoadHandledSet: %v", err)
	}
	if _, ok := handled[pathutil.Normalize("/videos/legacy.mp4")]; !ok {
		t.Fatal("legacy bare path not registered as handled")
	}
	if _, ok := handled[pathutil.Normalize("/videos/current.mp4")]; !ok {
		t.Fatal("tab-separated record not registered as handled")
	}
}

func TestLegacyPathWithoutTrailingNewline(t *testing.T) {
	log := newTestLog(t)
	if err := os.WriteFile(log.Path(), []byte("/videos/tail.mp4"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	handled, err := log.LoadHandledSet()
	if err != nil {
		t.Fatalf("LoadHandledSet: %v", err)
	}
	if _, ok := handled[pathutil.Normalize("/videos/tail.mp4")]; !ok {
		t.Fatal("expected path without trailing newline to register as handled")
	}
}

func TestReaderSkipsBlanksCommentsAndMalformedLines(t *testing.T) {
	log := newTestLog(t)
	content := strings.Join([]string{
		"# comment header",
		"",
		"2025-01-02T03:04:05Z\tProcessed\t\t/videos/ok.mp4",
		"bad\tline", // tab present but too few fields
		"not-a-timestamp\tFailed\tNoFrames\t/videos/odd.mp4",
		"   ",
		"/videos/bare.mp4",
	}, "\n")
	if err := os.WriteFile(log.Path(), []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	handled, err := log.LoadHandledSet()
	if err != nil {
		t.Fatalf("LoadHandledSet: %v", err)
	}
	if len(handled) != 3 {
		t.Fatalf("expected 3 handled paths, got %d: %v", len(handled), handled)
	}
	for _, want := range []string{"/videos/ok.mp4", "/videos/odd.mp4", "/videos/bare.mp4"} {
		if _, ok := handled[pathutil.Normalize(want)]; !ok {
			t.Fatalf("expected %q in handled set", want)
		}
	}
}

func TestAppendWritesTabSeparatedForm(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append("/videos/x.mp4", StatusProcessed, "with\ttab"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimRight(string(data), "\n")
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		t.Fatalf("expected 4 tab-separated fields, got %d: %q", len(fields), line)
	}
	if fields[1] != string(StatusProcessed) {
		t.Fatalf("unexpected status field: %q", fields[1])
	}
	if fields[2] != "with tab" {
		t.Fatalf("expected tabs in reason flattened, got %q", fields[2])
	}
}

func TestRecordsExposeStatusAndReason(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append("/videos/y.mp4", StatusFailed, "VlcFailed"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != StatusFailed || rec.Reason != "VlcFailed" || rec.Legacy {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Fatal("expected parsed timestamp")
	}
}
