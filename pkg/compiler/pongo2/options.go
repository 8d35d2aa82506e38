package pongo2

import (
	"io/fs"
	"strings"
)

// Option configures the pongo2 compiler before construction.
type Option func(*config)

type config struct {
	name       string
	templates  fs.FS
	baseDir    string
	filters    map[string]func(input any, param any) (any, error)
	globalData map[string]any
}

// WithName names the underlying template set, mostly visible in pongo2 error
// messages.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithFS lets templates {% include %} or {% extends %} other files from fsys.
func WithFS(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = fsys
	}
}

// WithBaseDir lets templates include other files from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFilters registers filters when the compiler is built. Filters are global
// to pongo2; names that already exist are left untouched.
func WithFilters(filters map[string]func(input any, param any) (any, error)) Option {
	return func(cfg *config) {
		if len(filters) == 0 {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]func(input any, param any) (any, error), len(filters))
		}
		for name, fn := range filters {
			cfg.filters[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobals seeds values visible to every compiled template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}
