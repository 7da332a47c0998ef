// Package logger wraps zerolog with the construction the rest of
// gridsched shares: one timestamped, caller-tagged logger per process,
// built once at startup from Config and threaded explicitly into every
// package that does non-trivial work (the solve cascade, horizon
// classification, the element-resolution fixpoint) rather than read
// back off a global.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger construction options.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output instead of JSON lines
}

// New builds a zerolog.Logger per cfg.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(output).With().Timestamp().Caller().Logger()
}
