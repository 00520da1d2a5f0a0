// Package logging builds the process-wide structured logger. Unlike the
// package-level global this pattern is often seen with, the logger here is
// built once at startup and threaded through an explicit Deps struct (see
// internal/pipeline.Deps) rather than hidden behind mutable package state.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// New builds a zerolog.Logger from cfg. JSON output is meant for production
// (shipped to a log aggregator); console output is for local/CLI use. The
// level is applied through zerolog.SetGlobalLevel, which is process-wide:
// the most recent call to New sets the minimum level for every logger.
func New(cfg Config) zerolog.Logger {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// ForDocument returns a child logger scoped to a single document's
// processing run, the way a request-scoped logger is built in the rest of
// the pipeline.
func ForDocument(base zerolog.Logger, documentID string) zerolog.Logger {
	return base.With().Str("document_id", documentID).Logger()
}
