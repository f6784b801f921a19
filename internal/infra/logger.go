package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so the rest of the codebase depends on a
// stable name rather than the third-party module directly.
type Logger = zerolog.Logger

// NewLogger builds the process-wide logger. Every line carries the service
// name so api and worker output can be separated in aggregated logs.
func NewLogger(appEnv, service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}
