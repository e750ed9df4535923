package parse

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField marks a response that lacks a field an operation
	// cannot continue without.
	ErrMissingField = errors.New("missing field")
	// ErrMalformed marks a body that is not JSON at all.
	ErrMalformed = errors.New("malformed response")
)

// FieldError names the required field that was absent or unusable.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Is lets errors.Is(err, ErrMissingField) match any FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// MissingField returns a *FieldError for path.
func MissingField(path string) error {
	return &FieldError{Field: path}
}

// DecodeError reports image bytes that no registered decoder accepted.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RemoteError carries an application-level error message embedded in an
// otherwise successful response.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "remote error: " + e.Message
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
