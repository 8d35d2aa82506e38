package engine

import (
	"errors"
	"strconv"
	"strings"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("engine: closed")

var (
	errContextRequired  = errors.New("context is required")
	errRendererRequired = errors.New("renderer is required")
)

const msgResolve = "cannot resolve template type"

// Error is the single failure type returned by resolve and render calls. Err
// keeps the original cause, so errors.As still reaches a
// *compiler.CompilationError or a context error.
type Error struct {
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("engine: ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(e.Path))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
