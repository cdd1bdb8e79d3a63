package observ

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. level may be changed later, e.g. on
// a configuration notification.
func NewLogger(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
