// Package pongo2 implements compiler.Compiler on top of the pongo2 template
// language (Django syntax).
//
// Compiled templates see these variables:
//
//	model  the bound model (nil when rendering without one)
//	data   the auxiliary data map
//	ctx    {"path": ..., "locale": ...}
//	tool   the engine helper, e.g. {{ tool.Render("footer", model)|safe }}
//
// Auxiliary data keys are also exposed at the top level unless they collide
// with one of the names above.
//
// Values are HTML-escaped only when the destination writer reports
// template.IsHTML. Plain writers get the raw values. Templates using
// {% extends %} always escape, since the escaping mode of a child cannot be
// changed from outside its parent.
package pongo2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/template"
)

var _ compiler.Compiler = (*Compiler)(nil)

// Compiler compiles sources into pongo2 templates sharing one template set.
type Compiler struct {
	mu  sync.RWMutex
	set *pongo2.TemplateSet
}

// New constructs a Compiler using the provided options.
func New(options ...Option) (*Compiler, error) {
	cfg := &config{name: "templating"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo2 compiler: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	if len(loaders) == 0 {
		loaders = append(loaders, noLoader{})
	}

	c := &Compiler{set: pongo2.NewSet(cfg.name, loaders...)}
	registerDefaultFilters()

	for name, fn := range cfg.filters {
		if err := RegisterFilter(name, fn); err != nil && !errors.Is(err, errFilterExists) {
			return nil, fmt.Errorf("pongo2 compiler: register filter %q: %w", name, err)
		}
	}
	if err := c.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo2 compiler: apply global data: %w", err)
	}
	return c, nil
}

// Compile reads src and parses it. Parse failures are returned as
// *compiler.CompilationError.
func (c *Compiler) Compile(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error) {
	if c == nil || c.set == nil {
		return template.Descriptor{}, errors.New("pongo2 compiler: compiler is nil")
	}
	if src == nil {
		return template.Descriptor{}, errors.New("pongo2 compiler: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return template.Descriptor{}, err
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return template.Descriptor{}, fmt.Errorf("pongo2 compiler: read source %q: %w", name, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	tpl, err := c.set.FromBytes(raw)
	if err != nil {
		return template.Descriptor{}, &compiler.CompilationError{Name: name, Err: err}
	}
	// a source that parses on its own only fails here when it extends a parent
	text, err := c.set.FromBytes(unescaped(raw))
	if err != nil {
		text = tpl
	}

	return template.Descriptor{
		Name:      name,
		ModelType: modelType,
		Unit:      &unit{owner: c, name: name, html: tpl, text: text},
	}, nil
}

// GlobalContext merges data into the globals visible to every template.
func (c *Compiler) GlobalContext(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	globals, err := convertMapToContext(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set.Globals == nil {
		c.set.Globals = make(pongo2.Context)
	}
	c.set.Globals.Update(globals)
	return nil
}

func unescaped(raw []byte) []byte {
	out := make([]byte, 0, len(raw)+len(autoescapeOff)+len(endAutoescape))
	out = append(out, autoescapeOff...)
	out = append(out, raw...)
	return append(out, endAutoescape...)
}

const (
	autoescapeOff = "{% autoescape off %}"
	endAutoescape = "{% endautoescape %}"
)

// noLoader backs a set built without WithFS or WithBaseDir. Includes then
// fail with a not-found error instead of pongo2 refusing to build the set.
type noLoader struct{}

func (noLoader) Abs(base, name string) string {
	return name
}

func (noLoader) Get(path string) (io.Reader, error) {
	return nil, fmt.Errorf("pongo2 compiler: template %q: %w", path, fs.ErrNotExist)
}

type unit struct {
	owner *Compiler
	name  string
	html  *pongo2.Template
	text  *pongo2.Template
}

func (u *unit) Execute(w io.Writer, tpl template.Template, data template.Data) error {
	isHTML := template.IsHTML(w)
	viewContext, err := buildContext(tpl, data, isHTML)
	if err != nil {
		return fmt.Errorf("pongo2 compiler: convert data for %q: %w", u.name, err)
	}

	target := u.text
	if isHTML {
		target = u.html
	}

	u.owner.mu.RLock()
	err = target.ExecuteWriterUnbuffered(viewContext, w)
	u.owner.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("pongo2 compiler: execute template %q: %w", u.name, err)
	}
	return nil
}

var reserved = map[string]struct{}{
	"model": {},
	"data":  {},
	"ctx":   {},
	"tool":  {},
}

func buildContext(tpl template.Template, data template.Data, isHTML bool) (pongo2.Context, error) {
	aux, err := convertMapToContext(data)
	if err != nil {
		return nil, err
	}

	out := make(pongo2.Context, len(aux)+len(reserved))
	for key, value := range aux {
		if _, clash := reserved[key]; clash {
			continue
		}
		out[key] = value
	}

	model, err := convertValue(tpl.Model())
	if err != nil {
		return nil, err
	}
	out["model"] = model
	out["data"] = map[string]any(aux)

	if tc := tpl.Context(); tc != nil {
		out["ctx"] = map[string]any{
			"path":   tc.Path,
			"locale": tc.Locale.String(),
		}
		if tc.Tool != nil {
			out["tool"] = tc.Tool
			if ht, ok := tc.Tool.(template.HTMLTool); ok && isHTML {
				out["tool"] = ht.HTML()
			}
		}
	}
	return out, nil
}

func isIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func convertMapToContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if !isIdentifier(key) {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}
