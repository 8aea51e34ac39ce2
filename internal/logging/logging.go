// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Setup installs a charmbracelet/log backed slog default. Production output is
// logfmt so it can be shipped; development output is the coloured text format.
func Setup(level string, production bool) {
	slog.SetDefault(New(os.Stdout, level, production))
}

// New builds a logger writing to w at the given level.
func New(w io.Writer, level string, production bool) *slog.Logger {
	opts := log.Options{
		Level:           parseLevel(level),
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
		ReportCaller:    !production,
	}
	if production {
		opts.Formatter = log.LogfmtFormatter
	}
	return slog.New(log.NewWithOptions(w, opts))
}

func parseLevel(s string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
