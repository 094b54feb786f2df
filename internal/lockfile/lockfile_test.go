package lockfile

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireRecordsHolder(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}
	holder, err := ReadHolder(lock.Path())
	if err != nil {
		t.Fatalf("ReadHolder failed: %v", err)
	}
	if holder.PID != os.Getpid() || holder.Started.IsZero() {
		t.Errorf("unexpected holder %+v", holder)
	}
	if !holder.Running() {
		t.Error("expected own process to be running")
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	_, err = Acquire(dir)
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockError, got %v", err)
	}
	if lockErr.Holder.PID != os.Getpid() {
		t.Errorf("expected holder pid %d, got %d", os.Getpid(), lockErr.Holder.PID)
	}
	if !strings.Contains(err.Error(), "another guru-legal instance") {
		t.Errorf("unexpected message %q", err.Error())
	}

	// The failed attempt must not clobber the holder record.
	holder, _ := ReadHolder(first.Path())
	if holder.PID != os.Getpid() {
		t.Errorf("holder record lost: %+v", holder)
	}
}

func TestReleaseAndReacquire(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("expected lock file removed, got %v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	again.Release()
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected directory created: %v", err)
	}
}

func TestParseHolder(t *testing.T) {
	tests := []struct {
		content string
		pid     int
		started bool
	}{
		{"pid=12345\nstarted=2026-03-10T09:00:00Z\n", 12345, true},
		{"pid=42\n", 42, false},
		{"garbage", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		h := parseHolder(bufio.NewScanner(strings.NewReader(tt.content)))
		if h.PID != tt.pid || h.Started.IsZero() == tt.started {
			t.Errorf("parseHolder(%q) = %+v", tt.content, h)
		}
	}
}

func TestHolderString(t *testing.T) {
	if got := (Holder{}).String(); got != "unknown process" {
		t.Errorf("unexpected %q", got)
	}
	h := Holder{PID: 999999, Started: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	if got := h.String(); !strings.Contains(got, "999999") || !strings.Contains(got, "2026-03-10T09:00:00Z") {
		t.Errorf("unexpected %q", got)
	}
}
