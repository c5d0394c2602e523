package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeWritesHeaderAndTruncates(t *testing.T) {
	dir := t.TempDir()

	reg, err := Initialize(dir, "run12345")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := reg.RegisterStart(101); err != nil {
		t.Fatalf("RegisterStart: %v", err)
	}

	// A second initialization of the same run id starts a fresh trail.
	reg2, err := Initialize(dir, "run12345")
	if err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	data, err := os.ReadFile(reg2.Path())
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# framegrab process registry\n") {
		t.Fatalf("missing header: %q", content)
	}
	if strings.Contains(content, "START") {
		t.Fatalf("expected truncation to drop prior records: %q", content)
	}
	if !strings.Contains(content, "run12345") {
		t.Fatalf("expected run id in header: %q", content)
	}
}

func TestRegisterStartStopAppendRecords(t *testing.T) {
	reg, err := Initialize(t.TempDir(), "abcd0000")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := reg.RegisterStart(4242); err != nil {
		t.Fatalf("RegisterStart: %v", err)
	}
	if err := reg.RegisterStop(4242); err != nil {
		t.Fatalf("RegisterStop: %v", err)
	}

	data, err := os.ReadFile(reg.Path())
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 2 header + 2 record lines, got %d: %q", len(lines), data)
	}
	start := strings.Split(lines[2], "\t")
	if len(start) != 3 || start[1] != "START" || start[2] != "4242" {
		t.Fatalf("unexpected start record: %q", lines[2])
	}
	stop := strings.Split(lines[3], "\t")
	if len(stop) != 3 || stop[1] != "STOP" || stop[2] != "4242" {
		t.Fatalf("unexpected stop record: %q", lines[3])
	}
}

func TestRegisterStopWithoutRegistryIsNoop(t *testing.T) {
	dir := t.TempDir()
	reg, err := Initialize(dir, "gone0000")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := os.Remove(reg.Path()); err != nil {
		t.Fatalf("remove registry: %v", err)
	}

	if err := reg.RegisterStop(7); err != nil {
		t.Fatalf("expected no-op stop, got %v", err)
	}
	if _, err := os.Stat(reg.Path()); !os.IsNotExist(err) {
		t.Fatal("expected registry to stay absent after no-op stop")
	}
	if err := reg.RegisterStart(8); err != nil {
		t.Fatalf("start should recreate via append: %v", err)
	}
	entries, err := os.ReadFile(filepath.Join(dir, ".pids_gone0000.txt"))
	if err != nil {
		t.Fatalf("read recreated registry: %v", err)
	}
	if !strings.Contains(string(entries), "START\t8") {
		t.Fatalf("expected start record, got %q", entries)
	}
}
