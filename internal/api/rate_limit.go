package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artlens/artlens/internal/endpoint"
)

// Reset values above this are Unix timestamps; smaller ones are seconds from now.
const unixTimestampThreshold = 1_000_000_000

// Quota is the rate limit a service advertised on its latest response.
// Counts the service did not send are -1.
type Quota struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// LogAttrs returns slog key/value pairs for the known fields.
func (q Quota) LogAttrs() []any {
	var attrs []any
	if q.Limit >= 0 {
		attrs = append(attrs, "limit", q.Limit)
	}
	if q.Remaining >= 0 {
		attrs = append(attrs, "remaining", q.Remaining)
	}
	if !q.ResetAt.IsZero() {
		attrs = append(attrs, "reset_at", q.ResetAt.UTC().Format(time.RFC3339))
	}
	return attrs
}

// Quotas returns the latest quota seen per service.
func (c *Client) Quotas() map[endpoint.Service]Quota {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	out := make(map[endpoint.Service]Quota, len(c.quotas))
	for k, v := range c.quotas {
		out[k] = v
	}
	return out
}

// recordQuota keeps the service's latest rate limit headers. Responses
// without them leave the previous value in place.
func (c *Client) recordQuota(service endpoint.Service, h http.Header) {
	q, ok := parseQuota(h, time.Now())
	if !ok {
		return
	}
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if c.quotas == nil {
		c.quotas = map[endpoint.Service]Quota{}
	}
	c.quotas[service] = q
}

func parseQuota(h http.Header, now time.Time) (Quota, bool) {
	q := Quota{Limit: -1, Remaining: -1}
	found := false
	if v, ok := headerInt(h, "X-RateLimit-Limit", "RateLimit-Limit"); ok {
		q.Limit, found = v, true
	}
	if v, ok := headerInt(h, "X-RateLimit-Remaining", "RateLimit-Remaining"); ok {
		q.Remaining, found = v, true
	}
	if t, ok := parseReset(firstHeader(h, "X-RateLimit-Reset", "RateLimit-Reset"), now); ok {
		q.ResetAt, found = t, true
	}
	return q, found
}

func headerInt(h http.Header, keys ...string) (int, bool) {
	v, err := strconv.Atoi(firstHeader(h, keys...))
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstHeader(h http.Header, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(h.Get(key)); value != "" {
			return value
		}
	}
	return ""
}

func parseReset(value string, now time.Time) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		switch {
		case secs > unixTimestampThreshold:
			return time.Unix(secs, 0).UTC(), true
		case secs >= 0:
			return now.Add(time.Duration(secs) * time.Second).UTC(), true
		}
		return time.Time{}, false
	}
	if t, err := http.ParseTime(value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// parseRetryAfter reads Retry-After as delta seconds or an HTTP date.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
