package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output to stdout; swap the handler
// when a log shipper needs JSON.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
