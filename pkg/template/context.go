package template

import (
	"context"
	"io"

	"golang.org/x/text/language"
)

// Resources resolves template sources by path and locale. A missing source is
// reported as ok == false with a nil error.
type Resources interface {
	Get(ctx context.Context, path string, locale language.Tag) (rc io.ReadCloser, ok bool, err error)
}

// Tool is the helper handle template bodies use to reach back into the engine
// that is rendering them.
type Tool interface {
	// Render renders another template inline with the caller's locale.
	Render(path string, model any) (string, error)
	Path() string
	Locale() string
}

// HTMLTool is implemented by tools that can render partials for an HTML
// parent, so the partial escapes its values the same way the parent does.
type HTMLTool interface {
	Tool
	HTML() Tool
}

// Context is created fresh for every render call and owned by the instance it
// is passed to.
type Context struct {
	Path      string
	Locale    language.Tag
	Resources Resources
	Tool      Tool
}

// NewContext builds an execution context.
func NewContext(path string, locale language.Tag, resources Resources, tool Tool) *Context {
	return &Context{
		Path:      path,
		Locale:    locale,
		Resources: resources,
		Tool:      tool,
	}
}
