// Package debug carries the debug flag through a context and configures the
// process-wide slog logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// Log formats accepted by NewLogger.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// sensitiveKeys are attribute names whose values never reach the log.
var sensitiveKeys = []string{"token", "authorization", "secret", "password", "x-xapp-token"}

// NewLogger builds a logger writing to w. Debug mode lowers the level from
// Warn to Debug.
func NewLogger(w io.Writer, debugEnabled bool, format string) *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}
	if strings.EqualFold(format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupLogger installs a stderr text logger as the slog default.
func SetupLogger(debugEnabled bool) {
	slog.SetDefault(NewLogger(os.Stderr, debugEnabled, FormatText))
}

// SetupLoggerFormat is SetupLogger with an explicit format.
func SetupLoggerFormat(debugEnabled bool, format string) {
	slog.SetDefault(NewLogger(os.Stderr, debugEnabled, format))
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, "[redacted]")
		}
	}
	return a
}
