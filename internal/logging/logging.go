// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Configure installs a default logger writing to w at the given level.
// format is "json" or "text"; unknown levels fall back to info.
func Configure(w io.Writer, level, format string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(level),
	})
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(log.JSONFormatter)
	}

	log.SetDefault(logger)
	return logger
}

// ParseLevel converts a level name to a log level.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
