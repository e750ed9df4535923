package outfmt

import (
	"encoding/json"
	"reflect"
)

// normalizeJSONOutput wraps list results as {"items": [...]} so every JSON
// document is an object. Nil slices become empty arrays.
func normalizeJSONOutput(v any) any {
	if v == nil {
		return v
	}
	switch v.(type) {
	case []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}

// elements returns the members of a slice value, or nil when v is not a list.
func elements(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
