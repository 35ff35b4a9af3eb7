package main

import (
	"io"
	"log/slog"
	"os"
)

// setupLogger creates the process logger.
// format: "json" or "text" (defaults to "text" if empty)
// If w is nil, writes to os.Stderr.
func setupLogger(format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", "authprovider")
}
