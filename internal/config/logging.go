package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger. "local" gets a human-readable
// console writer with debug output; every other environment logs JSON at info level.
func SetupLogger(env, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "local" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Str("service", service).Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", service).Logger()
	}
	return log.Logger
}
