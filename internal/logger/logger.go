// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// Options selects the level and output format of the logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// Output is where loggers write. Stdout is reserved for the MCP and
// native-messaging protocols, so this defaults to stderr.
var Output io.Writer = os.Stderr

// New returns a zerolog.Logger tagged with the service name.
// Call sites should use .Stack() on error events to include stacks.
func New(service string, opts Options) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	var w io.Writer = Output
	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: Output, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Str("service", service).
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
