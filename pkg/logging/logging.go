// Package logging carries a charmbracelet logger through context.Context so
// library stages can report progress without owning output configuration.
package logging

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger with short timestamps ("15:04:05.00").
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or log.Default().
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// Timer logs a completion message with the elapsed time.
type Timer struct {
	logger *log.Logger
	start  time.Time
}

// Start begins timing an operation.
func Start(l *log.Logger) *Timer {
	return &Timer{logger: l, start: time.Now()}
}

// Done logs msg with the elapsed time rounded to the millisecond,
// e.g. "Loaded 42 nodes (1.234s)".
func (t *Timer) Done(msg string, keyvals ...any) {
	t.logger.Info(msg, append(keyvals, "took", t.Elapsed())...)
}

// Elapsed returns the time since Start, rounded to the millisecond.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start).Round(time.Millisecond)
}
