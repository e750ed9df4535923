package parse

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Tag is one label Imagga assigned to an image.
type Tag struct {
	Title      string  `json:"tag"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TagResults reads results[0].tags[].tag, preserving response order. Tags
// without a string title are skipped. A response of any other shape yields an
// empty slice and a log entry; only a body that is not JSON is an error.
func TagResults(body []byte) ([]Tag, error) {
	root, err := decodeRoot(body)
	if err != nil {
		return nil, err
	}
	out := []Tag{}
	results, ok := root.array("results")
	if !ok || len(results) == 0 {
		slog.Warn("tagging response has no results", "bytes", len(body))
		return out, nil
	}
	first, ok := asObject(results[0])
	if !ok {
		slog.Warn("unexpected response shape", "field", "results[0]")
		return out, nil
	}
	tags, ok := first.array("tags")
	if !ok {
		if _, present := first["tags"]; present {
			slog.Warn("unexpected response shape", "field", "results[0].tags")
		}
		return out, nil
	}
	for _, raw := range tags {
		t, ok := asObject(raw)
		if !ok {
			continue
		}
		title, ok := t.text("tag")
		if !ok || title == "" {
			continue
		}
		tag := Tag{Title: title}
		if confidence, ok := t.number("confidence"); ok {
			tag.Confidence = confidence
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		slog.Debug("tagging response has no usable tags")
	}
	return out, nil
}

// ContentID reads uploaded[0].id from a content upload response.
func ContentID(body []byte) (string, bool) {
	root, err := decodeRoot(body)
	if err != nil {
		return "", false
	}
	uploaded, ok := root.array("uploaded")
	if !ok || len(uploaded) == 0 {
		return "", false
	}
	first, ok := asObject(uploaded[0])
	if !ok {
		return "", false
	}
	id, ok := first.text("id")
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// ImaggaStatus reports the error Imagga embeds in a 2xx body, if any. Both the
// flat form {"status":"error","message":"..."} and the nested form
// {"status":{"type":"error","text":"..."}} are recognised.
func ImaggaStatus(body []byte) error {
	var env struct {
		Status  json.RawMessage `json:"status"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Status) == 0 {
		return nil
	}

	var flat string
	if err := json.Unmarshal(env.Status, &flat); err == nil {
		if flat == "error" {
			return &RemoteError{Message: orDefault(env.Message, "unspecified error")}
		}
		return nil
	}

	var nested struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(env.Status, &nested); err == nil && nested.Type == "error" {
		return &RemoteError{Message: orDefault(nested.Text, "unspecified error")}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
