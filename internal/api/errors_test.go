package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/artlens/artlens/internal/endpoint"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 404, Body: "Not found"}
	if err.Error() != "API error (status 404): Not found" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	err = &APIError{Service: endpoint.ServiceImagga, StatusCode: 500, Body: "boom"}
	if err.Error() != "imagga API error (status 500): boom" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestAuthError_Error(t *testing.T) {
	err := &AuthError{Reason: "invalid credentials"}
	expected := "authentication error: invalid credentials"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	err = &AuthError{Service: endpoint.ServiceArtsy, Reason: "no credential configured"}
	expected = "authentication error (artsy): no credential configured"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestTransportError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Service: endpoint.ServiceArtsy, Method: "GET", URL: "https://api.artsy.net/api/search", Err: inner}

	expected := "artsy request failed: GET https://api.artsy.net/api/search: connection refused"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
	if err.Timeout() {
		t.Error("connection refused is not a timeout")
	}

	timeout := &TransportError{Err: fmt.Errorf("dial: %w", context.DeadlineExceeded)}
	if !timeout.Timeout() {
		t.Error("deadline exceeded should be a timeout")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transport bool
		apiErr    bool
		auth      bool
		rateLimit bool
	}{
		{"nil", nil, false, false, false, false},
		{"plain", errors.New("x"), false, false, false, false},
		{"transport", &TransportError{Err: errors.New("reset")}, true, false, false, false},
		{"wrapped transport", fmt.Errorf("search: %w", &TransportError{Err: errors.New("reset")}), true, false, false, false},
		{"500", &APIError{StatusCode: 500}, false, true, false, false},
		{"401", &APIError{StatusCode: 401}, false, true, true, false},
		{"403", &APIError{StatusCode: 403}, false, true, true, false},
		{"429", &APIError{StatusCode: 429}, false, true, false, true},
		{"missing credential", &AuthError{Reason: "none"}, false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransportError(tt.err); got != tt.transport {
				t.Errorf("IsTransportError() = %v, want %v", got, tt.transport)
			}
			if got := IsAPIError(tt.err); got != tt.apiErr {
				t.Errorf("IsAPIError() = %v, want %v", got, tt.apiErr)
			}
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
			if got := IsRateLimitError(tt.err); got != tt.rateLimit {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.rateLimit)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"not_found code", &APIError{StatusCode: 404, Body: "not_found"}, true},
		{"contains not found", &APIError{StatusCode: 400, Body: "Artist Not Found"}, true},
		{"other error", &APIError{StatusCode: 500, Body: "server error"}, false},
		{"plain error mentioning not found", errors.New("file not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}
