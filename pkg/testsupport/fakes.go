package testsupport

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/template"
)

// MapProvider serves sources from memory and counts lookups. Keys are template
// paths; locales are ignored unless an entry exists under "<path>@<locale>".
type MapProvider struct {
	mu      sync.RWMutex
	sources map[string]string
	calls   atomic.Int64
}

// NewMapProvider seeds a provider with sources.
func NewMapProvider(sources map[string]string) *MapProvider {
	p := &MapProvider{sources: make(map[string]string, len(sources))}
	for k, v := range sources {
		p.sources[k] = v
	}
	return p
}

// Set adds or replaces a source.
func (p *MapProvider) Set(path, body string) {
	p.mu.Lock()
	p.sources[path] = body
	p.mu.Unlock()
}

// Calls reports how many lookups were made.
func (p *MapProvider) Calls() int {
	return int(p.calls.Load())
}

func (p *MapProvider) Get(_ context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
	p.calls.Add(1)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if body, ok := p.sources[path+"@"+locale.String()]; ok {
		return io.NopCloser(strings.NewReader(body)), true, nil
	}
	if body, ok := p.sources[path]; ok {
		return io.NopCloser(strings.NewReader(body)), true, nil
	}
	return nil, false, nil
}

// CountingCompiler wraps a compiler and records every call.
type CountingCompiler struct {
	Next  compiler.Compiler
	calls atomic.Int64

	mu         sync.Mutex
	modelTypes []reflect.Type
}

// Calls reports how many compilations were requested.
func (c *CountingCompiler) Calls() int {
	return int(c.calls.Load())
}

// ModelTypes returns the model type passed to each compilation, in order.
func (c *CountingCompiler) ModelTypes() []reflect.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]reflect.Type(nil), c.modelTypes...)
}

func (c *CountingCompiler) Compile(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.modelTypes = append(c.modelTypes, modelType)
	c.mu.Unlock()
	return c.Next.Compile(ctx, name, src, modelType)
}

// EchoCompiler is a minimal compiler: the source body is written verbatim
// and every "{model}" token is replaced with fmt-style output of the model.
// Sources starting with "!" fail to compile.
var EchoCompiler = compiler.CompilerFunc(func(_ context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return template.Descriptor{}, err
	}
	body := string(raw)
	if strings.HasPrefix(body, "!") {
		return template.Descriptor{}, &compiler.CompilationError{Name: name, Err: errSyntax(strings.TrimPrefix(body, "!"))}
	}
	unit := template.UnitFunc(func(w io.Writer, tpl template.Template, _ template.Data) error {
		_, err := io.WriteString(w, strings.ReplaceAll(body, "{model}", modelString(tpl.Model())))
		return err
	})
	return template.Descriptor{Name: name, ModelType: modelType, Unit: unit}, nil
})

type errSyntax string

func (e errSyntax) Error() string {
	return "syntax error: " + string(e)
}

func modelString(model any) string {
	if model == nil {
		return ""
	}
	if s, ok := model.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(model)
}
