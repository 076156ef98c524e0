// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options select the log level and output format.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Format is "console", "json" or "auto". Auto picks console output on a
	// terminal and JSON otherwise.
	Format string
	// Output defaults to os.Stderr.
	Output *os.File
}

// Setup applies opts to the global logger and returns it.
func Setup(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer
	switch opts.Format {
	case "json":
		w = out
	case "console":
		w = ConsoleWriter(out)
	case "", "auto":
		if isTerminal(out) {
			w = ConsoleWriter(out)
		} else {
			w = out
		}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opts.Format)
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger, nil
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsoleWriter returns a human-readable writer, colored only on terminals.
func ConsoleWriter(f *os.File) io.Writer {
	return zerolog.ConsoleWriter{Out: f, NoColor: !isTerminal(f), TimeFormat: time.DateTime}
}
