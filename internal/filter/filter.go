// Package filter runs jq expressions (via gojq) over command output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression undoes shell escaping of '!'. Zsh turns != into \!=
// even inside single quotes.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Query is a compiled jq expression that can be run repeatedly.
type Query struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles expression.
func Compile(expression string) (*Query, error) {
	expression = NormalizeExpression(strings.TrimSpace(expression))
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Query{expr: expression, code: code}, nil
}

// String returns the normalized expression.
func (q *Query) String() string {
	return q.expr
}

// Run evaluates the query against plain JSON data (maps, slices, numbers).
// A single result is returned as-is; several come back as a slice.
//
// List output is wrapped as {"items": [...]}, so a query that starts by
// iterating the root is retried against the items when the wrapper makes
// it fail.
func (q *Query) Run(data any) (any, error) {
	results, err := q.collect(data)
	if err != nil && iteratesRoot(q.expr) && isShapeError(err) {
		if items, ok := itemsOf(data); ok {
			if retry, retryErr := q.collect(items); retryErr == nil {
				results, err = retry, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func (q *Query) collect(data any) ([]any, error) {
	iter := q.code.Run(data)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
}

// RunJSON decodes jsonData and runs the query on it.
func (q *Query) RunJSON(jsonData []byte) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return q.Run(data)
}

// Apply compiles expression and runs it once. An empty expression returns
// data unchanged.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}
	q, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Run(data)
}

// ApplyFromJSON decodes jsonData and applies expression. An empty expression
// only decodes.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}

func iteratesRoot(expr string) bool {
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

func isShapeError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "expected an object but got: array") || strings.Contains(msg, "cannot iterate over")
}

func itemsOf(data any) ([]any, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}
