package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer lets the test read what the spinner goroutine wrote.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStop(t *testing.T) {
	var out lockedBuffer
	s := startSpinner(context.Background(), &out, "Exporting bar-linear...")
	time.Sleep(3 * spinnerInterval)
	s.stop()
	s.stop()

	got := out.String()
	if !strings.Contains(got, "Exporting bar-linear...") {
		t.Errorf("spinner output = %q, want the status message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("spinner should end by clearing its line, got %q", got)
	}
}

func TestSpinnerFollowsParentContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := startSpinner(ctx, &lockedBuffer{}, "Prefetching overlay...")
	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after the parent context ended")
	}
	s.stop()
}

func TestWithSpinner(t *testing.T) {
	want := errors.New("boom")
	tests := []struct {
		name string
		out  *lockedBuffer
	}{
		{"silent", nil},
		{"animated", &lockedBuffer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			fn := func() error {
				calls++
				return want
			}
			var err error
			if tt.out == nil {
				err = withSpinner(context.Background(), nil, "Working...", fn)
			} else {
				err = withSpinner(context.Background(), tt.out, "Working...", fn)
			}
			if calls != 1 || err != want {
				t.Errorf("calls=%d err=%v", calls, err)
			}
		})
	}
}
