package logging

import (
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the slog key used for errors.
	KeyError = "err"

	// KeyDal is the slog key used for the data access layer name.
	KeyDal = "dal"

	// KeyJob is the slog key used for background job names.
	KeyJob = "job"

	// KeyGuild is the slog key used for guild IDs.
	KeyGuild = "guild_id"

	// KeyTicket is the slog key used for ticket IDs.
	KeyTicket = "ticket_id"

	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name

	// level is the minimum level that will be logged.
	level slog.Level
}

// NewConfig creates a new logging configuration, reading the level from the
// environment.
func NewConfig(name Name) *Config {
	return &Config{
		name:  name,
		level: levelFromEnv(),
	}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CommonLogger creates the common logger for the application. The logger is
// also set as the slog default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String("app", string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
