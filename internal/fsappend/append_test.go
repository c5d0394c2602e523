package fsappend

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	if err := Append(path, []byte("first\n")); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := Append(path, []byte("second\n")); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestAppendRetriesWithLinearBackoff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-parent", "log.txt")

	var delays []time.Duration
	err := AppendWithSleeper(path, []byte("x"), func(d time.Duration) {
		delays = append(delays, d)
	})
	if err == nil {
		t.Fatal("expected final failure when parent directory is absent")
	}
	if len(delays) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(delays))
	}
	if delays[0] != 150*time.Millisecond || delays[1] != 300*time.Millisecond {
		t.Fatalf("expected linear backoff 150ms then 300ms, got %v", delays)
	}
}

func TestAppendSurfacesOnlyFinalFailure(t *testing.T) {
	err := AppendWithSleeper(filepath.Join(t.TempDir(), "no", "such", "dir", "f"), []byte("x"), func(time.Duration) {})
	if err == nil {
		t.Fatal("expected error")
	}
	if !os.IsNotExist(unwrapAll(err)) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}

func unwrapAll(err error) error {
	for {
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}
