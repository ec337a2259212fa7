package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dikkadev/prettyslog"
)

const GROUP = "imucast"

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

func New(level slog.Level) *slog.Logger {
	return slog.New(prettyslog.NewPrettyslogHandler(GROUP,
		prettyslog.WithLevel(level),
	))
}

// Setup builds the logger for level and installs it as the slog default.
func Setup(level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := New(lvl)
	slog.SetDefault(logger)
	return logger, nil
}
