package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"
)

type templateKey struct{}

// WithTemplate adds a template string to the context
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

// GetTemplate retrieves the template string from context
func GetTemplate(ctx context.Context) string {
	if tmpl, ok := ctx.Value(templateKey{}).(string); ok {
		return tmpl
	}
	return ""
}

var templateFuncs = template.FuncMap{
	"json": func(val any) (string, error) {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
	"pct": func(val any) string {
		switch n := val.(type) {
		case float64:
			return fmt.Sprintf("%.1f%%", n)
		case int:
			return fmt.Sprintf("%d%%", n)
		default:
			return fmt.Sprint(val)
		}
	},
	"join":  strings.Join,
	"upper": strings.ToUpper,
}

// WriteTemplate renders v (already reduced to plain JSON values) with a Go
// text/template.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return formatTemplateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return formatTemplateError("template execution error", err)
	}
	return nil
}

var templateLocationPattern = regexp.MustCompile(`:(\d+):(\d+):`)

func formatTemplateError(kind string, err error) error {
	msg := err.Error()
	if matches := templateLocationPattern.FindStringSubmatch(msg); len(matches) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %s", kind, matches[1], matches[2], msg)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
