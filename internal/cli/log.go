// Package cli wires chartsnap's cobra commands to the export pipeline, the
// batch orchestrator and the HTTP server.
//
// Settings are read from the TOML config file (see pkg/config) and then
// overridden by any flag the user set explicitly. Each command gets the
// CLI's charmbracelet logger through its context:
//
//	logger := loggerFromContext(cmd.Context())
//	logger.Info("Starting batch", "items", plan.Len(), "output", dir)
//
// Commands: export, batch, plan, serve, config, cache, completion.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs how long a command phase took.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time, in milliseconds, ahead
// of kv.
func (s *stopwatch) done(msg string, kv ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append([]any{"elapsed", elapsed}, kv...)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default for contexts built outside a command run (tests, helpers).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
