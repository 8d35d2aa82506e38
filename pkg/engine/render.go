package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/render"
	"github.com/goliatone/go-templating/pkg/template"
)

// RenderOption customises a single render call.
type RenderOption func(*renderConfig)

type renderConfig struct {
	data      template.Data
	locale    language.Tag
	hasLocale bool
}

// WithData passes auxiliary data to the renderer alongside the model.
func WithData(data map[string]any) RenderOption {
	return func(cfg *renderConfig) {
		cfg.data = data
	}
}

// WithLocale overrides the ambient locale for one call.
func WithLocale(locale language.Tag) RenderOption {
	return func(cfg *renderConfig) {
		cfg.locale = locale
		cfg.hasLocale = true
	}
}

// Render renders path without a model using the string renderer. ok is false
// when no template exists at path.
func (e *Engine) Render(ctx context.Context, path string, opts ...RenderOption) (string, bool, error) {
	return RenderWith[template.Template, string](ctx, e, path, render.StringRenderer{}, opts...)
}

// RenderModel renders path bound to model using the string renderer.
func RenderModel[M any](ctx context.Context, e *Engine, path string, model M, opts ...RenderOption) (string, bool, error) {
	return RenderModelWith[template.Template, string](ctx, e, path, render.StringRenderer{}, model, opts...)
}

// RenderWith renders path without a model through renderer. The activated
// instance must be a T, otherwise a *template.TypeMismatchError is returned
// and renderer is never called.
func RenderWith[T template.Template, R any](ctx context.Context, e *Engine, path string, renderer render.Renderer[T, R], opts ...RenderOption) (R, bool, error) {
	activate := func(desc template.Descriptor, tc *template.Context) (template.Template, error) {
		return template.Activate(desc, tc), nil
	}
	return renderTemplate(ctx, e, path, renderer, nil, activate, opts)
}

// RenderModelWith renders path bound to model through renderer.
func RenderModelWith[T template.Template, R any, M any](ctx context.Context, e *Engine, path string, renderer render.Renderer[T, R], model M, opts ...RenderOption) (R, bool, error) {
	activate := func(desc template.Descriptor, tc *template.Context) (template.Template, error) {
		return template.ActivateModel(desc, tc, model)
	}
	return renderTemplate(ctx, e, path, renderer, reflect.TypeFor[M](), activate, opts)
}

type activator func(template.Descriptor, *template.Context) (template.Template, error)

func renderTemplate[T template.Template, R any](ctx context.Context, e *Engine, path string, renderer render.Renderer[T, R], modelType reflect.Type, activate activator, opts []RenderOption) (R, bool, error) {
	var zero R
	if renderer == nil {
		return zero, false, &Error{Op: "render", Path: path, Err: errRendererRequired}
	}

	cfg := renderConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	locale := e.localeFor(ctx, cfg)

	desc, ok, err := e.Resolve(ctx, path, locale, modelType)
	if err != nil || !ok {
		return zero, false, err
	}

	tc := template.NewContext(path, locale, e.provider, newTool(ctx, e, path, locale))
	inst, err := activate(desc, tc)
	if err != nil {
		return zero, false, translateRenderError(path, err)
	}

	unit, ok := inst.(T)
	if !ok {
		return zero, false, &template.TypeMismatchError{
			Actual:   reflect.TypeOf(inst),
			Expected: reflect.TypeFor[T](),
		}
	}

	result, err := dispatch(ctx, e, func() (R, error) {
		return renderer.Render(unit, cfg.data)
	})
	if err != nil {
		return zero, false, translateRenderError(path, err)
	}
	return result, true, nil
}

func (e *Engine) localeFor(ctx context.Context, cfg renderConfig) language.Tag {
	if cfg.hasLocale {
		return cfg.locale
	}
	if locale, ok := LocaleFrom(ctx); ok {
		return locale
	}
	return e.defaultLocale
}

func translateRenderError(path string, err error) error {
	var mismatch *template.TypeMismatchError
	if errors.As(err, &mismatch) {
		return err
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}
	return &Error{Op: "render", Path: path, Err: err}
}

type outcome[R any] struct {
	value R
	err   error
}

// dispatch runs fn on a worker goroutine and waits for it, or for ctx. A slot
// of the render semaphore is held for as long as fn runs, even if the caller
// stopped waiting.
func dispatch[R any](ctx context.Context, e *Engine, fn func() (R, error)) (R, error) {
	var zero R
	if err := e.renders.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	done := make(chan outcome[R], 1)
	go func() {
		defer e.renders.Release(1)

		var out outcome[R]
		defer func() {
			if r := recover(); r != nil {
				out = outcome[R]{err: fmt.Errorf("panic: %v", r)}
			}
			done <- out
		}()
		out.value, out.err = fn()
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
