// Package provider resolves template sources by path and locale. Providers
// report a missing template with ok == false and a nil error; errors are
// reserved for sources that exist but could not be read.
package provider

import (
	"context"
	"io"
	"path"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/template"
)

// Provider is the source lookup contract consumed by the engine.
type Provider = template.Resources

// Func adapts a function to Provider.
type Func func(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error)

// Get calls f.
func (f Func) Get(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
	return f(ctx, path, locale)
}

// Option configures the lookup rules shared by the FS, Dir and HTTP providers.
type Option func(*lookup)

type lookup struct {
	extension string
	localized bool
}

func newLookup(options []Option) lookup {
	cfg := lookup{extension: ".tpl", localized: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithExtension sets the file extension appended to template paths that do
// not already carry one. Pass "" to use paths verbatim.
func WithExtension(ext string) Option {
	return func(cfg *lookup) {
		trimmed := strings.TrimSpace(ext)
		if trimmed != "" && !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithLocalizedNames toggles the "<name>.<locale><ext>" lookup that runs
// before the neutral "<name><ext>" one. Enabled by default.
func WithLocalizedNames(enabled bool) Option {
	return func(cfg *lookup) {
		cfg.localized = enabled
	}
}

// candidates lists the names tried for name under locale, most specific first.
func (l lookup) candidates(name string, locale language.Tag) []string {
	name = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(name)), "/")
	if name == "" || name == "." {
		return nil
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = l.extension
	}

	out := make([]string, 0, 2)
	if l.localized && !locale.IsRoot() {
		out = append(out, base+"."+locale.String()+ext)
	}
	return append(out, base+ext)
}
