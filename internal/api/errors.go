package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/artlens/artlens/internal/endpoint"
)

// TransportError reports a request that never produced an HTTP response:
// DNS failure, refused or reset connection, timeout, or a truncated body.
type TransportError struct {
	Service endpoint.Service
	Method  string
	URL     string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %s %s: %v", e.Service, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// APIError represents a non-2xx response from either service.
type APIError struct {
	Service    endpoint.Service
	StatusCode int
	Body       string
	RequestID  string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// AuthError represents a missing or rejected credential.
type AuthError struct {
	Service endpoint.Service
	Reason  string
}

func (e *AuthError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("authentication error (%s): %s", e.Service, e.Reason)
	}
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

// IsTransportError checks if the error is a transport-level failure.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsAPIError checks if the error is a non-2xx response.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsAuthError checks if the error is an authentication error, either a
// missing credential or a 401/403 response.
func IsAuthError(err error) bool {
	var e *AuthError
	if errors.As(err, &e) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimitError checks if the error is a 429 response.
func IsRateLimitError(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == 429
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 ||
			strings.Contains(strings.ToLower(apiErr.Body), "not found")
	}
	return false
}
