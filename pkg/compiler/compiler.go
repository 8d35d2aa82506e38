// Package compiler defines the contract between the engine and the backends
// that turn template source into an invokable unit.
package compiler

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/goliatone/go-templating/pkg/template"
)

// Compiler turns a template source stream into a descriptor. modelType is nil
// when the caller renders without a model. Invalid sources and failed model
// bindings are reported as *CompilationError.
type Compiler interface {
	Compile(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error) {
	return f(ctx, name, src, modelType)
}

// CompilationError wraps the backend diagnostic for a source that could not be
// compiled.
type CompilationError struct {
	Name string
	Err  error
}

func (e *CompilationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("compiler: compile template: %v", e.Err)
	}
	return fmt.Sprintf("compiler: compile template %q: %v", e.Name, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}
