// Package dryrun previews requests that would create remote state.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/artlens/artlens/internal/endpoint"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// WithDryRun returns a context with dry-run mode enabled or disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled reports whether dry-run mode is on.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Preview describes a request that was resolved but not sent.
type Preview struct {
	Service  string         `json:"service"`
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Encoding string         `json:"encoding"`
	Details  map[string]any `json:"details,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// FromDescriptor builds a Preview for d. Request bodies are summarized by
// size and never included.
func FromDescriptor(d endpoint.Descriptor) *Preview {
	p := &Preview{
		Service:  string(d.Service),
		Method:   d.Method,
		URL:      strings.TrimPrefix(d.String(), d.Method+" "),
		Encoding: d.Encoding.String(),
		Details:  map[string]any{},
	}
	if len(d.Body) > 0 {
		p.Details["body_bytes"] = len(d.Body)
	}
	if d.ContentType != "" {
		p.Details["content_type"] = d.ContentType
	}
	return p
}

// Write renders the preview for a terminal.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s %s\n", p.Method, p.URL)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintf(w, "  service: %s\n", p.Service)
	_, _ = fmt.Fprintf(w, "  encoding: %s\n", p.Encoding)

	keys := make([]string, 0, len(p.Details))
	for k := range p.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
	}
	_, _ = fmt.Fprintln(w)

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "Nothing sent (dry-run mode)")
}
