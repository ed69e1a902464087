package ggmedia

import (
	"log/slog"

	"github.com/gogpu/ggmedia/internal/logging"
)

// SetLogger configures the logger for ggmedia and all its sub-packages.
// By default, ggmedia produces no log output. Pass nil to restore the
// silent default.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by ggmedia:
//   - [slog.LevelDebug]: per-session diagnostics (plans, async loads)
//   - [slog.LevelInfo]: lifecycle events (session created and disposed)
//   - [slog.LevelWarn]: degraded output (decorative asset or filter failures)
//   - [slog.LevelError]: primary media failures
//
// Example:
//
//	ggmedia.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by ggmedia.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
