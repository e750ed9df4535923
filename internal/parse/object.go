package parse

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// object is a decoded JSON object whose members are checked one at a time,
// so a mistyped member only affects the entry that carries it.
type object map[string]json.RawMessage

// decodeRoot decodes a response body. An empty body or a JSON value that is
// not an object yields an empty object; only invalid JSON is an error.
func decodeRoot(body []byte) (object, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return object{}, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, malformed(err)
	}
	o, ok := asObject(body)
	if !ok {
		return object{}, nil
	}
	return o, nil
}

func asObject(raw json.RawMessage) (object, bool) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil || a == nil {
		return nil, false
	}
	return a, true
}

// object returns the member at the end of path when every step is an object.
func (o object) object(path ...string) (object, bool) {
	cur := o
	for _, key := range path {
		raw, ok := cur[key]
		if !ok {
			return nil, false
		}
		if cur, ok = asObject(raw); !ok {
			return nil, false
		}
	}
	return cur, true
}

func (o object) array(key string) ([]json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	return asArray(raw)
}

// text reports the member as a string; null and other types are absent.
func (o object) text(key string) (string, bool) {
	var v any
	if err := json.Unmarshal(o[key], &v); err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (o object) number(key string) (float64, bool) {
	var v any
	if err := json.Unmarshal(o[key], &v); err != nil {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

// href reads _links.<rel>.href.
func (o object) href(rel string) (string, bool) {
	link, ok := o.object("_links", rel)
	if !ok {
		return "", false
	}
	return link.text("href")
}

// embedded returns the entries of _embedded.<key>. A missing collection is
// empty; a collection that is not an array is logged and treated as empty.
func (o object) embedded(key string) []json.RawMessage {
	emb, ok := o.object("_embedded")
	if !ok {
		return nil
	}
	raw, present := emb[key]
	if !present || isNull(raw) {
		return nil
	}
	entries, ok := asArray(raw)
	if !ok {
		slog.Warn("unexpected response shape", "field", "_embedded."+key)
	}
	return entries
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
