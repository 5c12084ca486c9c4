// Package progress implements the progress sink (spec §4.8): an abstract
// interface notified at well-defined milestones, with a terminal
// implementation backed by github.com/schollz/progressbar/v3 and a no-op
// implementation for tests.
package progress

import (
	"fmt"
	"os"
	"sync"

	progressbar "github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Status describes how an individual job concluded.
type Status int

const (
	StatusCompleted Status = iota
	StatusSkipped
	StatusFailed
)

// Sink is notified at well-defined milestones of a fetch run. All methods
// must be safe to call concurrently from any worker.
type Sink interface {
	BeginSet(totalJobs int, label string)
	Tick(name string, bytes int64, status Status)
	EndSet()
}

// Null is a no-op Sink, suitable for tests.
type Null struct{}

func (Null) BeginSet(int, string)         {}
func (Null) Tick(string, int64, Status) {}
func (Null) EndSet()                      {}

var _ Sink = Null{}

// elideBelow is the batch size threshold under which Terminal renders no
// bar at all - spec.md leaves this choice to the ProgressSink
// implementation, not as a contract of the core.
const elideBelow = 2

// Terminal renders a live progress bar to stderr. Its own mutex serialises
// updates from concurrent workers, since Sink is the only mutable object
// shared across the fetch scheduler's goroutines. When stderr is not a
// TTY (e.g. output redirected to a file or CI log), it falls back to
// plain completion lines rather than an animated bar.
type Terminal struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	isTTY bool
}

// NewTerminal constructs a Terminal sink.
func NewTerminal() *Terminal {
	return &Terminal{isTTY: term.IsTerminal(int(os.Stderr.Fd()))}
}

func (t *Terminal) BeginSet(totalJobs int, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if totalJobs < elideBelow || !t.isTTY {
		t.bar = nil
		return
	}
	t.bar = progressbar.NewOptions(totalJobs,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (t *Terminal) Tick(name string, bytes int64, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		t.bar.Add(1)
		return
	}
	// no bar (batch below elideBelow, or stderr is not a TTY): print a
	// line instead.
	fmt.Fprintf(os.Stderr, "%s %s (%d bytes)\n", statusLabel(status), name, bytes)
}

func (t *Terminal) EndSet() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		t.bar.Finish()
		fmt.Fprintln(os.Stderr)
		t.bar = nil
	}
}

func statusLabel(status Status) string {
	switch status {
	case StatusSkipped:
		return "skip"
	case StatusFailed:
		return "fail"
	default:
		return "done"
	}
}
