package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/parse"
)

// ErrorCode is a machine-readable error classification used for JSON errors
// and process exit codes.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates a missing or rejected credential (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the credential lacks permission (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrValidation indicates input validation failed (HTTP 422 or bad CLI input).
	ErrValidation ErrorCode = "validation_failed"
	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited ErrorCode = "rate_limited"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the request timed out.
	ErrTimeout ErrorCode = "timeout"
	// ErrNetwork indicates the request never reached the service.
	ErrNetwork ErrorCode = "network_error"
	// ErrDecodeFailed indicates image bytes could not be decoded.
	ErrDecodeFailed ErrorCode = "decode_failed"
	// ErrUnexpectedResponse indicates a body without a field the operation needs.
	ErrUnexpectedResponse ErrorCode = "unexpected_response"
	// ErrUnknown indicates an unknown or unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

type codeInfo struct {
	retryable  bool
	suggestion string
}

var codeTable = map[ErrorCode]codeInfo{
	ErrBadRequest:         {suggestion: "Check the request format and parameters"},
	ErrUnauthorized:       {suggestion: "Run 'artlens auth set' to store your Artsy and Imagga credentials"},
	ErrForbidden:          {suggestion: "Check that your API credentials are allowed to use this endpoint"},
	ErrNotFound:           {suggestion: "Verify the link or search term; Artsy links expire with their tokens"},
	ErrValidation:         {suggestion: "Check the input values"},
	ErrRateLimited:        {retryable: true, suggestion: "Wait a moment and retry, or lower rate_limit_rps in the config file"},
	ErrServerError:        {retryable: true, suggestion: "The server encountered an error; try again later"},
	ErrTimeout:            {retryable: true, suggestion: "The request timed out; check network connectivity or raise --timeout"},
	ErrNetwork:            {retryable: true, suggestion: "Check network connectivity and the configured base URLs"},
	ErrDecodeFailed:       {suggestion: "The downloaded file is not a supported image (JPEG, PNG, GIF, WebP)"},
	ErrUnexpectedResponse: {suggestion: "The service returned an unexpected response; rerun with --debug for details"},
}

// IsRetryable reports whether the same call may succeed later.
// The client itself never retries.
func (c ErrorCode) IsRetryable() bool {
	return codeTable[c].retryable
}

// Suggestion returns a one-line hint for resolving the error, or "".
func (c ErrorCode) Suggestion() string {
	return codeTable[c].suggestion
}

var statusCodes = map[int]ErrorCode{
	400: ErrBadRequest,
	401: ErrUnauthorized,
	403: ErrForbidden,
	404: ErrNotFound,
	422: ErrValidation,
	429: ErrRateLimited,
}

// ErrorCodeFromStatus classifies an HTTP status.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	if code, ok := statusCodes[statusCode]; ok {
		return code
	}
	if statusCode >= 500 && statusCode < 600 {
		return ErrServerError
	}
	return ErrUnknown
}

// StructuredError is the JSON error document written to stderr in JSON mode.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewStructuredError fills Retryable and Suggestion from code.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewStructuredErrorWithContext is NewStructuredError plus context fields.
func NewStructuredErrorWithContext(code ErrorCode, message string, ctx map[string]any) *StructuredError {
	err := NewStructuredError(code, message)
	err.Context = ctx
	return err
}

// NewValidationError reports a setting whose value is not one of allowed.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	list := strings.Join(allowed, ", ")
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, list),
		Suggestion:    "Use one of: " + list,
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

// StructuredErrorFromAPIError converts an APIError to a StructuredError.
func StructuredErrorFromAPIError(apiErr *APIError) *StructuredError {
	code := ErrorCodeFromStatus(apiErr.StatusCode)
	ctx := map[string]any{
		"status_code": apiErr.StatusCode,
	}
	if apiErr.Service != "" {
		ctx["service"] = string(apiErr.Service)
	}
	if apiErr.RequestID != "" {
		ctx["request_id"] = apiErr.RequestID
	}
	if apiErr.RetryAfter > 0 {
		ctx["retry_after"] = apiErr.RetryAfter.String()
	}
	return &StructuredError{
		Code:       code,
		Message:    apiErr.Body,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
		Context:    ctx,
	}
}

// StructuredErrorFromError attempts to convert any error to a StructuredError.
// It handles StructuredError, APIError, AuthError, TransportError, the parse
// errors, invalid routes, and generic errors.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StructuredErrorFromAPIError(apiErr)
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return NewStructuredErrorWithContext(ErrUnauthorized, err.Error(), map[string]any{"service": string(authErr.Service)})
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		code := ErrNetwork
		if transportErr.Timeout() {
			code = ErrTimeout
		}
		return NewStructuredErrorWithContext(code, err.Error(), map[string]any{"service": string(transportErr.Service)})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewStructuredError(ErrTimeout, err.Error())
	}

	var decodeErr *parse.DecodeError
	if errors.As(err, &decodeErr) {
		return NewStructuredErrorWithContext(ErrDecodeFailed, err.Error(), map[string]any{"bytes": decodeErr.Size})
	}

	var remoteErr *parse.RemoteError
	if errors.As(err, &remoteErr) || errors.Is(err, parse.ErrMissingField) || errors.Is(err, parse.ErrMalformed) {
		return NewStructuredError(ErrUnexpectedResponse, err.Error())
	}

	if errors.Is(err, endpoint.ErrInvalidRoute) {
		return NewStructuredError(ErrValidation, err.Error())
	}

	// Generic error - classify as unknown
	return &StructuredError{
		Code:       ErrUnknown,
		Message:    err.Error(),
		Retryable:  false,
		Suggestion: "",
	}
}
