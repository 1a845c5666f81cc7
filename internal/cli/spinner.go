package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates one status line on w while a single export runs. Batch
// runs report through the progress view instead.
type spinner struct {
	w       io.Writer
	msg     string
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	mu      sync.Mutex
}

// startSpinner animates msg until stop is called or ctx ends.
func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, msg: msg, ctx: ctx, cancel: cancel, stopped: make(chan struct{})}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
			s.mu.Unlock()
			return
		case <-tick.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
			s.mu.Unlock()
		}
	}
}

// stop clears the line and waits for the animation to exit. Calling it
// again is a no-op.
func (s *spinner) stop() {
	s.cancel()
	<-s.stopped
}

// withSpinner runs fn behind a spinner on w. A nil w runs fn silently, as
// for --json output.
func withSpinner(ctx context.Context, w io.Writer, msg string, fn func() error) error {
	if w == nil {
		return fn()
	}
	s := startSpinner(ctx, w, msg)
	defer s.stop()
	return fn()
}
