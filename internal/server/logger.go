// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// SetupLogger configures the global slog logger on stdout.
func SetupLogger(level, format string) {
	slog.SetDefault(NewLogger(os.Stdout, level, format))
}

// NewLogger returns a tint logger for the text format and a JSON logger otherwise.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: logLevel, NoColor: !isTerminal(w)})
	}

	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
