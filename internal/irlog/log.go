// Package irlog is the logging capability used by the remote package and
// the cmd/ thin shells (irp and protocol do not log). It wraps charmbracelet/log so call sites get leveled, structured
// output without committing the core packages to a particular sink.
package irlog

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the four-severity capability the core packages depend on.
// Trace maps to charmbracelet/log's Debug level since the underlying
// library does not define a level below it.
type Logger struct {
	l *log.Logger
}

// New wraps an existing charmbracelet/log.Logger.
func New(l *log.Logger) Logger {
	return Logger{l: l}
}

// Default returns a logger writing to stderr at info level, timestamped,
// suitable for the cmd/ thin shells. Core packages never call this
// themselves; callers pass a Logger in.
func Default() Logger {
	return New(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	}))
}

// Discard returns a Logger that drops everything. A zero-value Logger
// drops everything too.
func Discard() Logger {
	return New(log.New(io.Discard))
}

func (lg Logger) logger() *log.Logger {
	if lg.l == nil {
		return log.New(io.Discard)
	}
	return lg.l
}

// Trace logs fine-grained diagnostics at debug level.
func (lg Logger) Trace(msg string, kv ...any) {
	lg.logger().Debug(msg, kv...)
}

// Info logs routine, expected events.
func (lg Logger) Info(msg string, kv ...any) {
	lg.logger().Info(msg, kv...)
}

// Warning logs a non-fatal condition per the error taxonomy's Warning
// kind: duplicate keys, a missing gap value defaulted, an ambiguous key
// resolved by picking the first match.
func (lg Logger) Warning(msg string, kv ...any) {
	lg.logger().Warn(msg, kv...)
}

// Error logs a condition that also produced a returned error, for callers
// that want both a log line and the error value.
func (lg Logger) Error(msg string, kv ...any) {
	lg.logger().Error(msg, kv...)
}

// With returns a Logger whose subsequent calls always carry the given
// key/value pairs, mirroring charmbracelet/log.Logger.With.
func (lg Logger) With(kv ...any) Logger {
	return New(lg.logger().With(kv...))
}
