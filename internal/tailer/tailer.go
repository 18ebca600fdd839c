// Package tailer watches a log file for appended lines with a simple poll
// loop and feeds each complete line to a handler. End-of-file means wait and
// retry; cancellation is cooperative via the run context.
package tailer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Handler receives each newline-terminated line appended to the file.
type Handler func(ctx context.Context, line string)

// Tailer polls one file for appended lines.
type Tailer struct {
	path     string
	interval time.Duration
	handle   Handler
	logger   log.Logger
}

// New creates a Tailer over path, polling at the given interval.
func New(path string, interval time.Duration, handle Handler, logger log.Logger) *Tailer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Tailer{path: path, interval: interval, handle: handle, logger: logger}
}

// Run tails the file until ctx is cancelled. The file is created if missing
// and reading starts at its current end, so only new appends are processed.
// A partial line at EOF is held until its terminating newline arrives.
func (t *Tailer) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o750); err != nil {
		return fmt.Errorf("tailer: create dir: %w", err)
	}
	f, err := os.OpenFile(t.path, os.O_RDONLY|os.O_CREATE, 0o640) //nolint:gosec // G304: path is from trusted config
	if err != nil {
		return fmt.Errorf("tailer: open %s: %w", t.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("tailer: seek end: %w", err)
	}

	t.logger.Info(ctx, "tailing log file", "path", t.path, "interval", t.interval)

	var pending strings.Builder
	buf := make([]byte, 64*1024)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			t.flush(ctx, &pending)
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("tailer: read: %w", err)
		}
		if n > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			t.logger.Info(context.Background(), "tailer stopped", "path", t.path)
			return nil
		case <-time.After(t.interval):
		}
	}
}

// flush hands every complete line in pending to the handler, keeping any
// trailing partial line buffered.
func (t *Tailer) flush(ctx context.Context, pending *strings.Builder) {
	data := pending.String()
	idx := strings.LastIndexByte(data, '\n')
	if idx < 0 {
		return
	}
	complete, rest := data[:idx], data[idx+1:]
	pending.Reset()
	pending.WriteString(rest)

	for _, raw := range strings.Split(complete, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		t.handle(ctx, line)
	}
}
