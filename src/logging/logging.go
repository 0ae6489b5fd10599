package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logger is the process-wide structured logger. It discards everything
// until Init is called, so library code can log unconditionally.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init configures the package logger. Console output goes to stderr at
// Warn and above so it never interleaves with command output on stdout.
// If logFile is non-empty, a rotated debug-level log is also written there.
func Init(logFile string, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logFile == "" {
		logger = slog.New(console)
		return
	}

	file := slog.NewTextHandler(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger = slog.New(teeHandler{console, file})
}

// Sub returns a logger scoped to one component, e.g. Sub("backup").
func Sub(component string) *slog.Logger {
	return logger.With("component", component)
}
