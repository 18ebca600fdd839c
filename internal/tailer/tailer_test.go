package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type lineCollector struct {
	mu    sync.Mutex
	lines []string
	got   chan struct{}
}

func newLineCollector() *lineCollector {
	return &lineCollector{got: make(chan struct{}, 64)}
}

func (c *lineCollector) handle(_ context.Context, line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// waitFor blocks until n lines have been handled or the deadline passes.
func (c *lineCollector) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-deadline:
			t.Fatalf("timed out waiting for %d lines, have %v", n, c.snapshot())
		}
	}
}

func TestRun_DeliversAppendedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("old line before start\n"), 0o640); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	col := newLineCollector()
	tl := New(path, 10*time.Millisecond, col.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	// give the tailer a moment to seek to the end before appending
	time.Sleep(50 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("failed login from 1.2.3.4\nGET /admin 500\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	col.waitFor(t, 2)

	lines := col.snapshot()
	if len(lines) != 2 || lines[0] != "failed login from 1.2.3.4" || lines[1] != "GET /admin 500" {
		t.Errorf("lines = %v, want the two appended lines in order", lines)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_HoldsPartialLineUntilNewline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	col := newLineCollector()
	tl := New(path, 10*time.Millisecond, col.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tl.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("partial without newline"); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := col.snapshot(); len(got) != 0 {
		t.Fatalf("lines = %v, want none until the newline arrives", got)
	}

	if _, err := f.WriteString(" now complete\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	col.waitFor(t, 1)

	lines := col.snapshot()
	if len(lines) != 1 || lines[0] != "partial without newline now complete" {
		t.Errorf("lines = %v, want the joined complete line", lines)
	}
}

func TestRun_CreatesMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "app.log")
	col := newLineCollector()
	tl := New(path, 10*time.Millisecond, col.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat tail file: %v, want it created", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestFlush_SkipsBlankLines(t *testing.T) {
	t.Parallel()

	col := newLineCollector()
	tl := New("unused", time.Second, col.handle, nil)

	var pending strings.Builder
	pending.WriteString("one\n\n  \ntwo\ntrailing partial")
	tl.flush(context.Background(), &pending)

	lines := col.snapshot()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want blank lines skipped", lines)
	}
	if rest := pending.String(); rest != "trailing partial" {
		t.Errorf("pending = %q, want the partial line kept", rest)
	}
}
