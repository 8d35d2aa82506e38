package render

import (
	"github.com/goliatone/go-templating/pkg/template"
)

// Renderer turns an activated template of type T into a result of type R. The
// engine checks that the activated instance is a T before calling Render.
type Renderer[T template.Template, R any] interface {
	Render(unit T, data template.Data) (R, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc[T template.Template, R any] func(unit T, data template.Data) (R, error)

// Render calls f.
func (f RendererFunc[T, R]) Render(unit T, data template.Data) (R, error) {
	return f(unit, data)
}

// Named is a string renderer that can be looked up by name, used by hosts that
// pick an output flavour at runtime.
type Named interface {
	Renderer[template.Template, string]
	Name() string
	ContentType() string
}
