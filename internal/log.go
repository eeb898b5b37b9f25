package internal

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger.
// # Headless mode
// - logs go to stderr
// # TUI mode
// - logs go to the log file `sightwatch.log`, since stderr would fight the
//   terminal UI for the screen
// .
func NewLogger(out io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
