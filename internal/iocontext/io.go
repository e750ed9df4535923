// Package iocontext carries the command's I/O streams through a context so
// commands and tests agree on where output goes.
package iocontext

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

// Buffers returns an IO backed by in-memory buffers. in may be empty.
func Buffers(in string) (*IO, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &IO{Out: out, ErrOut: errOut, In: strings.NewReader(in)}, out, errOut
}

// Silenced returns a copy that drops diagnostics. Primary output is dropped
// too when dropOut is set.
func (s *IO) Silenced(dropOut bool) *IO {
	c := *s
	c.ErrOut = io.Discard
	if dropOut {
		c.Out = io.Discard
	}
	return &c
}

// InIsTerminal reports whether In is an interactive terminal.
func (s *IO) InIsTerminal() bool {
	return isTerminal(s.In)
}

// OutIsTerminal reports whether Out is an interactive terminal.
func (s *IO) OutIsTerminal() bool {
	return isTerminal(s.Out)
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

type ioKey struct{}

// WithIO stores streams in ctx.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO returns the streams stored in ctx, or the process streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
