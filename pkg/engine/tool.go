package engine

import (
	"context"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/output"
	"github.com/goliatone/go-templating/pkg/template"
)

// tool is the template.Tool handed to every execution context. It is bound to
// the request context and locale of the render that created it.
type tool struct {
	ctx    context.Context
	engine *Engine
	path   string
	locale language.Tag
	html   bool
}

var _ template.HTMLTool = (*tool)(nil)

func newTool(ctx context.Context, e *Engine, path string, locale language.Tag) *tool {
	return &tool{ctx: ctx, engine: e, path: path, locale: locale}
}

func (t *tool) Path() string {
	return t.path
}

func (t *tool) Locale() string {
	return t.locale.String()
}

// HTML returns a tool whose partials escape values for an HTML parent.
func (t *tool) HTML() template.Tool {
	if t.html {
		return t
	}
	clone := *t
	clone.html = true
	return &clone
}

// Render renders the template at path inline, on the calling goroutine, so a
// partial never waits for a render slot held by its parent. A missing partial
// renders as the empty string.
func (t *tool) Render(path string, model any) (string, error) {
	desc, ok, err := t.engine.Resolve(t.ctx, path, t.locale, nil)
	if err != nil || !ok {
		return "", err
	}

	nested := newTool(t.ctx, t.engine, path, t.locale)
	nested.html = t.html
	tc := template.NewContext(path, t.locale, t.engine.provider, nested)
	var inst template.Template
	if model == nil {
		inst = template.Activate(desc, tc)
	} else {
		bound, err := template.ActivateValue(desc, tc, model)
		if err != nil {
			return "", err
		}
		inst = bound
	}

	w := output.NewCollectionWriter()
	if t.html {
		w = output.NewHTMLCollectionWriter()
	}
	if err := inst.Execute(w, nil); err != nil {
		return "", translateRenderError(path, err)
	}
	return w.String(), nil
}
