// Package fuzzlog configures the single process-wide slog.Logger, in the
// style of the teacher's app/lifecycle.InitLogging: a text handler to
// stderr by default, switchable to JSON, level gated by a debug flag.
package fuzzlog

import (
	"log/slog"
	"os"
)

// Init installs the default slog logger for the process. format is
// "json" or anything else for text; debug raises the level to Debug.
func Init(format string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
