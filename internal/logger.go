package internal

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// NewLogger returns a JSON logger for LogFormatJSON and a charmbracelet/log
// console logger otherwise.
func NewLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:           log.Level(cfg.LogLevel),
		ReportTimestamp: cfg.LogLevel <= slog.LevelDebug,
	}))
}
