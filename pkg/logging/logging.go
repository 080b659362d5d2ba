package logging

import (
	"io"
	"log/slog"
	"os"
)

const (
	// KeyError is the attribute key used for error messages.
	KeyError = "err"

	// KeyAppName is the attribute key used for the application name.
	KeyAppName = "app"

	// KeyDal is the attribute key used for the data access layer name.
	KeyDal = "dal"

	// KeyHandler is the attribute key used for the handler name.
	KeyHandler = "handler"

	// KeyTicket is the attribute key used for ticket IDs.
	KeyTicket = "ticket"

	// KeySurface is the attribute key used for conversation surface IDs.
	KeySurface = "surface"

	// KeyUser is the attribute key used for user IDs.
	KeyUser = "user"
)

// Name is the name of the application that the logger belongs to.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the application name appended to every log line.
	name Name

	// writer is the destination for log output.
	writer io.Writer

	// level is the minimum level that will be logged.
	level slog.Level
}

// NewConfig creates a new logger configuration with sensible defaults.
func NewConfig(name Name) *Config {
	return &Config{
		name:   name,
		writer: os.Stdout,
		level:  slog.LevelDebug,
	}
}

// CommonLogger creates the standard application logger from the given configuration.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(c.writer, &slog.HandlerOptions{
		Level: c.level,
	})
	l := slog.New(h).With(
		slog.String(KeyAppName, string(c.name)),
	)
	return l, nil
}
