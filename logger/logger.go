// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"

	"github.com/JasFreaq/RPG-Project-sub000/config"
)

// Setup configures the global slog logger to write to w: JSON in
// production, text otherwise.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithGame tags log lines with the loaded game's title.
func WithGame(logger *slog.Logger, title string) *slog.Logger {
	return logger.With("game", title)
}
