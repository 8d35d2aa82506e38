// Package templating is the entry point for callers that want a ready-made
// engine: pongo2 templates read from a directory or fs.FS, compiled once per
// (path, locale) and cached for a TTL.
package templating

import (
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/compiler/pongo2"
	"github.com/goliatone/go-templating/pkg/config"
	"github.com/goliatone/go-templating/pkg/engine"
	"github.com/goliatone/go-templating/pkg/provider"
	"github.com/goliatone/go-templating/pkg/template"
)

// Engine aliases engine.Engine.
type Engine = engine.Engine

// Option aliases engine.Option.
type Option = engine.Option

// RenderOption aliases engine.RenderOption for per-call data and locale.
type RenderOption = engine.RenderOption

// Error is the engine-level failure type.
type Error = engine.Error

// TypeMismatchError reports a template or model of the wrong type.
type TypeMismatchError = template.TypeMismatchError

// CompilationError wraps a backend diagnostic for invalid template source.
type CompilationError = compiler.CompilationError

// Data is the auxiliary payload passed to templates.
type Data = template.Data

var (
	WithData   = engine.WithData
	WithLocale = engine.WithLocale
)

// New exposes the engine constructor from the top-level module.
func New(options ...Option) *Engine {
	return engine.New(options...)
}

// NewFromFS builds an engine whose templates, includes and extends all come
// from files. Extra options are applied after the defaults.
func NewFromFS(files fs.FS, options ...Option) (*Engine, error) {
	comp, err := pongo2.New(pongo2.WithFS(files))
	if err != nil {
		return nil, err
	}
	opts := append([]Option{
		engine.WithProvider(provider.NewFS(files)),
		engine.WithCompiler(comp),
	}, options...)
	return engine.New(opts...), nil
}

// NewFromConfig builds an engine described by cfg.
func NewFromConfig(cfg config.Config, logger *slog.Logger, options ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return nil, err
	}
	return engine.New(append(opts, options...)...), nil
}
