package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by Init
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init installs the global logger on stderr. Debug level when verbose.
func Init(verbose bool, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(levelFor(verbose))

	log.Logger = NewLogger(writer(os.Stderr, format))
}

func levelFor(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func writer(out io.Writer, format string) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
}

// NewLogger builds a timestamped logger fanning out to writers.
// With no writers it returns the global logger.
func NewLogger(writers ...io.Writer) zerolog.Logger {
	switch len(writers) {
	case 0:
		return log.Logger
	case 1:
		return zerolog.New(writers[0]).With().Timestamp().Logger()
	default:
		return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	}
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// Interactive is WithComponent for full-screen editors that share the
// terminal with the log output. Below warn is dropped unless verbose.
func Interactive(component string, verbose bool) zerolog.Logger {
	logger := WithComponent(component)
	if verbose {
		return logger
	}
	return logger.Level(zerolog.WarnLevel)
}
