package internal

import (
	"io"
	"log/slog"
)

// testLogger discards output; tests assert on behavior, not log lines.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
