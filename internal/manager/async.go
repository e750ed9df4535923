package manager

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/artlens/artlens/internal/parse"
)

// Completion receives the outcome of an asynchronous operation exactly once:
// either a result and an empty message, or the zero result and a message.
type Completion[T any] func(result T, errMessage string)

// SearchAsync runs Search on its own goroutine.
func (m *Manager) SearchAsync(ctx context.Context, term string, done Completion[[]parse.SearchResult]) {
	dispatch(ctx, func(ctx context.Context) ([]parse.SearchResult, error) {
		return m.Search(ctx, term)
	}, done)
}

// ArtworksAsync runs Artworks on its own goroutine.
func (m *Manager) ArtworksAsync(ctx context.Context, result parse.SearchResult, done Completion[[]parse.Artwork]) {
	dispatch(ctx, func(ctx context.Context) ([]parse.Artwork, error) {
		return m.Artworks(ctx, result)
	}, done)
}

// ImageAsync runs Image on its own goroutine.
func (m *Manager) ImageAsync(ctx context.Context, artwork parse.Artwork, done Completion[image.Image]) {
	dispatch(ctx, func(ctx context.Context) (image.Image, error) {
		return m.Image(ctx, artwork)
	}, done)
}

// TagsAsync runs Tags on its own goroutine.
func (m *Manager) TagsAsync(ctx context.Context, img image.Image, done Completion[[]parse.Tag]) {
	dispatch(ctx, func(ctx context.Context) ([]parse.Tag, error) {
		return m.Tags(ctx, img)
	}, done)
}

func dispatch[T any](ctx context.Context, call func(context.Context) (T, error), done Completion[T]) {
	go func() {
		var zero T
		delivered := false
		deliver := func(result T, msg string) {
			delivered = true
			if done != nil {
				done(result, msg)
			}
		}
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if delivered {
				panic(r)
			}
			slog.Error("operation panicked", "panic", r)
			deliver(zero, fmt.Sprintf("internal error: %v", r))
		}()

		result, err := call(ctx)
		if err != nil {
			deliver(zero, err.Error())
			return
		}
		deliver(result, "")
	}()
}

// Token identifies one request generation issued by Latest.
type Token uint64

// Latest tracks the most recent request so that callers firing overlapping
// async operations can drop results that arrive out of order.
type Latest struct {
	gen atomic.Uint64
}

// Begin starts a new generation, superseding every earlier token.
func (l *Latest) Begin() Token {
	return Token(l.gen.Add(1))
}

// IsCurrent reports whether t is still the newest generation.
func (l *Latest) IsCurrent(t Token) bool {
	return uint64(t) == l.gen.Load()
}
