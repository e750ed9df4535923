// Package outfmt renders command results as text tables, JSON or JSON Lines.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Mode represents the output format mode
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs one pretty-printed JSON document
	JSON
	// JSONL outputs one compact JSON value per line
	JSONL
)

type (
	modeKey    struct{}
	compactKey struct{}
)

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json' or 'jsonl')", s)
	}
}

// WithMode adds the output mode to the context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ModeFromContext retrieves the output mode from context
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(modeKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON reports whether output is structured (JSON or JSONL).
func IsJSON(ctx context.Context) bool {
	mode := ModeFromContext(ctx)
	return mode == JSON || mode == JSONL
}

// IsJSONL returns true if the context is set to JSONL output
func IsJSONL(ctx context.Context) bool {
	return ModeFromContext(ctx) == JSONL
}

// WithCompact adds the compact flag to the context
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact returns true if compact output mode is set in the context
func IsCompact(ctx context.Context) bool {
	if c, ok := ctx.Value(compactKey{}).(bool); ok {
		return c
	}
	return false
}

// WriteJSON writes a value as pretty-printed JSON
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes JSON, using compact format if compact is true.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}
