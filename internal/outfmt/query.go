package outfmt

import (
	"context"
	"encoding/json"
	"io"

	"github.com/artlens/artlens/internal/filter"
)

type queryKey struct{}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context
func GetQuery(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// ApplyQuery converts v to plain JSON values (maps, slices, float64) and runs
// query over the result. An empty query only converts.
func ApplyQuery(v any, query string) (any, error) {
	data, err := json.Marshal(normalizeJSONOutput(v))
	if err != nil {
		return nil, err
	}
	return filter.ApplyFromJSON(data, query)
}

// WriteJSONFiltered writes JSON with optional jq filtering.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	if query == "" {
		return WriteJSONMaybeCompact(w, normalizeJSONOutput(v), compact)
	}
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, result, compact)
}

// WriteJSONLines writes one compact JSON value per line. Lists are split into
// their elements; query, when set, runs against each element on its own.
func WriteJSONLines(w io.Writer, v any, query string) error {
	var q *filter.Query
	if query != "" {
		var err error
		if q, err = filter.Compile(query); err != nil {
			return err
		}
	}
	items, ok := elements(v)
	if !ok {
		items = []any{v}
	}
	for _, item := range items {
		out := item
		if q != nil {
			data, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if out, err = q.RunJSON(data); err != nil {
				return err
			}
		}
		if err := WriteJSONMaybeCompact(w, out, true); err != nil {
			return err
		}
	}
	return nil
}
