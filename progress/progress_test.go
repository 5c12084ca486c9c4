package progress_test

import (
	"testing"

	"github.com/cdnmirror/mirrorctl/progress"
)

func TestNullSinkIsSafeToCall(t *testing.T) {
	var sink progress.Sink = progress.Null{}
	sink.BeginSet(10, "mirroring")
	sink.Tick("a", 3, progress.StatusCompleted)
	sink.Tick("b", 0, progress.StatusSkipped)
	sink.Tick("c", 0, progress.StatusFailed)
	sink.EndSet()
}

func TestTerminalElidesBarBelowThreshold(t *testing.T) {
	term := progress.NewTerminal()
	term.BeginSet(1, "mirroring")
	term.Tick("a", 3, progress.StatusCompleted)
	term.EndSet()
}

func TestTerminalRendersBarAboveThreshold(t *testing.T) {
	term := progress.NewTerminal()
	term.BeginSet(10, "mirroring")
	for i := 0; i < 10; i++ {
		term.Tick("asset", 1, progress.StatusCompleted)
	}
	term.EndSet()
}
