package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Log levels accepted in the configuration.
const (
	LogLevelError   = "ERROR"
	LogLevelWarning = "WARNING"
	LogLevelInfo    = "INFO"
	LogLevelDebug   = "DEBUG"
)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case LogLevelError:
		return slog.LevelError, nil
	case LogLevelWarning, "WARN":
		return slog.LevelWarn, nil
	case LogLevelInfo, "":
		return slog.LevelInfo, nil
	case LogLevelDebug:
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// newLogger creates the process logger and installs it as the default.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
