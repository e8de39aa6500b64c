// Package applog configures the process-wide zerolog logger. While the
// TUI is on screen, log output must never hit stdout/stderr directly —
// it either goes to a file the user named with --log-to, or is kept in a
// bounded in-memory ring that nothing outside this package reads.
package applog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Setup.
type Options struct {
	// Verbosity: 0 = warn (the default), each -v drops one level toward
	// trace, each -q raises one level toward panic.
	Verbosity int
	// LogFile, if non-empty, makes Setup write JSON-formatted log lines to
	// this file instead of its in-memory ring. SetupPlain does not read it
	// and always writes to stderr.
	LogFile string
}

// Setup builds the root logger for the process and returns it along with
// a closer for any file it opened.
func Setup(opts Options) (zerolog.Logger, func(), error) {
	level := levelFor(opts.Verbosity)
	zerolog.SetGlobalLevel(level)

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, func() {}, err
		}
		logger := zerolog.New(f).With().Timestamp().Logger()
		return logger, func() { f.Close() }, nil
	}

	// No --log-to and a TUI is about to take the terminal: log to an
	// in-memory ring so nothing corrupts the alternate screen buffer. The
	// ring is not handed back to the caller, so its lines are not printed
	// on exit.
	ring := newRingWriter(200)
	logger := zerolog.New(ring).With().Timestamp().Logger()
	return logger, func() {}, nil
}

// SetupPlain builds a logger suitable for non-interactive modes (raw,
// --json, --csv), where stderr is safe to write to directly.
func SetupPlain(opts Options) zerolog.Logger {
	level := levelFor(opts.Verbosity)
	zerolog.SetGlobalLevel(level)
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(console).With().Timestamp().Logger()
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= -3:
		return zerolog.PanicLevel
	case verbosity == -2:
		return zerolog.FatalLevel
	case verbosity == -1:
		return zerolog.ErrorLevel
	case verbosity == 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// ringWriter keeps the last N log lines in memory; it never blocks and
// never grows unbounded.
type ringWriter struct {
	lines []string
	cap   int
	next  int
	full  bool
}

func newRingWriter(capacity int) *ringWriter {
	return &ringWriter{lines: make([]string, capacity), cap: capacity}
}

func (r *ringWriter) Write(p []byte) (int, error) {
	r.lines[r.next] = string(p)
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
	return len(p), nil
}

// Recent returns buffered lines oldest-first.
func (r *ringWriter) Recent() []string {
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, r.cap)
	out = append(out, r.lines[r.next:]...)
	out = append(out, r.lines[:r.next]...)
	return out
}

var _ io.Writer = (*ringWriter)(nil)
