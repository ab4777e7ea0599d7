package logger

import (
	"log/slog"
	"os"
	"sync"
)

var Logger *slog.Logger

var warnedReasons sync.Map

// Init configures the process-wide logger. Debug mode is decided by the
// caller (config), not read from the environment here.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(Logger)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// WarnOnce logs a warning only the first time the reason is seen, so a
// provider failing for every item does not flood the log.
func WarnOnce(reason, msg string, args ...any) {
	if _, seen := warnedReasons.LoadOrStore(reason, struct{}{}); seen {
		return
	}
	Logger.Warn(msg, args...)
}
