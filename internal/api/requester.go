package api

import (
	"context"

	"github.com/artlens/artlens/internal/endpoint"
)

// Executor performs one HTTP round trip for a resolved endpoint.
//
// The manager depends on this interface rather than *Client so tests can
// substitute canned responses without a network listener.
type Executor interface {
	Execute(ctx context.Context, d endpoint.Descriptor) (*Response, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, d endpoint.Descriptor) (*Response, error)

// Execute calls f(ctx, d).
func (f ExecutorFunc) Execute(ctx context.Context, d endpoint.Descriptor) (*Response, error) {
	return f(ctx, d)
}

var _ Executor = (*Client)(nil)
