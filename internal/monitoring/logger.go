// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Log is the package-level structured logger. It writes human-readable
// console output on a TTY and plain JSON otherwise, and may be replaced
// with SetLogger. Tests can mute it entirely.
var Log = newLogger(os.Stderr)

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) { Log = l }

// Mute discards all log output. Intended for tests.
func Mute() { Log = zerolog.New(io.Discard) }

func newLogger(out *os.File) zerolog.Logger {
	var w io.Writer = out
	if isatty.IsTerminal(out.Fd()) {
		w = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
