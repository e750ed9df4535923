package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/artlens/artlens/internal/cache"
	"github.com/artlens/artlens/internal/debug"
	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/parse"
)

const DefaultTimeout = 30 * time.Second

// Client executes resolved endpoints against Artsy and Imagga.
//
// Every call is a single round trip: there are no retries. A cached response
// is returned for idempotent requests when Cache is set.
type Client struct {
	HTTP        *http.Client
	Credentials Credentials
	UserAgent   string

	// Limiter paces outbound requests. Nil means unlimited.
	Limiter *rate.Limiter
	// Cache stores successful idempotent responses. Nil disables caching.
	Cache cache.Store
	// Metrics records request outcomes. Nil disables metrics.
	Metrics *Metrics
	// NewRequestID produces the X-Request-Id sent with each call.
	NewRequestID func() string

	rateLimitMu sync.Mutex
	quotas      map[endpoint.Service]Quota
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	FromCache  bool
}

// New creates a client with a TLS 1.2+ transport and the default timeout.
func New(creds Credentials) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	transport.TLSClientConfig.InsecureSkipVerify = false

	return &Client{
		Credentials: creds,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		NewRequestID: uuid.NewString,
	}
}

// Execute performs the request described by d. It returns exactly one of a
// 2xx Response, a *TransportError, an *AuthError or an *APIError.
func (c *Client) Execute(ctx context.Context, d endpoint.Descriptor) (*Response, error) {
	if d.URL == nil {
		return nil, fmt.Errorf("%w: descriptor has no URL", endpoint.ErrInvalidRoute)
	}
	fullURL := d.FullURL()
	service := string(d.Service)

	var cacheKey string
	if c.Cache != nil && d.Idempotent() {
		cacheKey = cache.Key(service, d.Method, fullURL)
		if body, ok := c.Cache.Get(ctx, cacheKey); ok {
			if debug.IsEnabled(ctx) {
				slog.Debug("cache hit", "service", service, "method", d.Method, "url", d.String())
			}
			c.Metrics.observe(service, d.Method, OutcomeCacheHit, 0)
			return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body, FromCache: true}, nil
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Service: d.Service, Method: d.Method, URL: d.String(), Err: err}
		}
	}

	var bodyReader io.Reader
	if d.Body != nil {
		bodyReader = bytes.NewReader(d.Body)
	}
	req, err := http.NewRequestWithContext(ctx, d.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if d.ContentType != "" {
		req.Header.Set("Content-Type", d.ContentType)
	}
	requestID := ""
	if c.NewRequestID != nil {
		requestID = c.NewRequestID()
		req.Header.Set("X-Request-Id", requestID)
	}

	req, err = c.Credentials.Authorize(req, d.Service)
	if err != nil {
		c.Metrics.observe(service, d.Method, OutcomeAuth, 0)
		return nil, err
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "service", service, "method", d.Method, "url", d.String(), "request_id", requestID, "error", err)
		}
		c.Metrics.observe(service, d.Method, OutcomeTransport, time.Since(start))
		return nil, &TransportError{Service: d.Service, Method: d.Method, URL: d.String(), Err: err}
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	elapsed := time.Since(start)
	if err != nil {
		c.Metrics.observe(service, d.Method, OutcomeTransport, elapsed)
		return nil, &TransportError{Service: d.Service, Method: d.Method, URL: d.String(), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.recordQuota(d.Service, resp.Header)
	c.Metrics.observe(service, d.Method, statusOutcome(resp.StatusCode), elapsed)
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "service", service, "method", d.Method, "url", d.String(), "status", resp.StatusCode, "bytes", len(respBody), "request_id", requestID, "duration", elapsed)
	}

	if serverID := requestIDFromHeader(resp.Header); serverID != "" {
		requestID = serverID
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Service:    d.Service,
			StatusCode: resp.StatusCode,
			Body:       sanitizeErrorBody(string(respBody)),
			RequestID:  requestID,
			RetryAfter: parseRetryAfter(resp.Header, time.Now()),
		}
	}

	if cacheKey != "" && cacheable(d.Service, respBody) {
		c.Cache.Put(ctx, cacheKey, respBody)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		RequestID:  requestID,
	}, nil
}

// cacheable rejects Imagga bodies that report an error behind a 2xx status.
func cacheable(service endpoint.Service, body []byte) bool {
	return service != endpoint.ServiceImagga || parse.ImaggaStatus(body) == nil
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get("X-Request-Id")
}

// sanitizeErrorBody extracts a safe error message from an API response
// without echoing arbitrary payloads back to the terminal.
//
// Artsy errors look like {"type":"...","message":"..."}; Imagga wraps its
// message as {"status":{"type":"error","text":"..."}}.
func sanitizeErrorBody(body string) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Status  *struct {
			Text string `json:"text"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		return "API request failed (response body redacted for security)"
	}
	switch {
	case errResp.Message != "":
		return errResp.Message
	case errResp.Error != "":
		return errResp.Error
	case errResp.Status != nil && errResp.Status.Text != "":
		return errResp.Status.Text
	}
	return "API request failed (response body redacted for security)"
}
