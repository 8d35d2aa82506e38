package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/cache"
	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/template"
)

type resolution struct {
	desc  template.Descriptor
	found bool
}

// Resolve returns the compiled descriptor for path under locale, compiling
// and caching it on a miss. modelType is handed to the compiler on a miss and
// may be nil. A missing source yields ok == false and a nil error.
//
// Concurrent misses for the same key share one compilation. The shared load
// runs detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (e *Engine) Resolve(ctx context.Context, path string, locale language.Tag, modelType reflect.Type) (template.Descriptor, bool, error) {
	if ctx == nil {
		return template.Descriptor{}, false, &Error{Op: "resolve", Path: path, Err: errContextRequired}
	}
	if err := e.ready(); err != nil {
		return template.Descriptor{}, false, &Error{Op: "resolve", Path: path, Err: err}
	}

	key := cache.NewKey(path, locale)
	if desc, ok := e.cache.Get(key); ok {
		e.logger.DebugContext(ctx, "template cache hit", "template", key.String())
		return desc, true, nil
	}

	if !e.singleFlight {
		res, err := e.load(ctx, key, locale, modelType)
		return res.desc, res.found, err
	}

	detached := context.WithoutCancel(ctx)
	ch := e.flights.DoChan(flightKey(key, modelType), func() (any, error) {
		if desc, ok := e.cache.Get(key); ok {
			return resolution{desc: desc, found: true}, nil
		}
		return e.load(detached, key, locale, modelType)
	})

	select {
	case r := <-ch:
		if r.Shared {
			e.logger.DebugContext(ctx, "template compilation shared", "template", key.String())
		}
		res, _ := r.Val.(resolution)
		return res.desc, res.found, r.Err
	case <-ctx.Done():
		return template.Descriptor{}, false, &Error{Op: "resolve", Path: path, Message: msgResolve, Err: ctx.Err()}
	}
}

func flightKey(key cache.Key, modelType reflect.Type) string {
	if modelType == nil {
		return key.String()
	}
	return key.String() + "|" + modelType.String()
}

func (e *Engine) load(ctx context.Context, key cache.Key, locale language.Tag, modelType reflect.Type) (res resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = resolution{}
			err = &Error{Op: "resolve", Path: key.Path, Message: msgResolve, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	e.logger.DebugContext(ctx, "template cache miss", "template", key.String())

	src, found, err := e.provider.Get(ctx, key.Path, locale)
	if err != nil {
		return resolution{}, &Error{Op: "resolve", Path: key.Path, Message: msgResolve, Err: err}
	}
	if !found || src == nil {
		e.logger.DebugContext(ctx, "template not found", "template", key.String())
		return resolution{}, nil
	}
	defer func() {
		_ = src.Close()
	}()

	desc, err := e.compiler.Compile(ctx, key.String(), src, modelType)
	if err != nil {
		var compileErr *compiler.CompilationError
		if errors.As(err, &compileErr) {
			e.logger.WarnContext(ctx, "template compilation failed", "template", key.String(), "error", compileErr.Err)
			return resolution{}, &Error{Op: "resolve", Path: key.Path, Err: err}
		}
		return resolution{}, &Error{Op: "resolve", Path: key.Path, Message: msgResolve, Err: err}
	}
	if desc.IsZero() {
		return resolution{}, nil
	}

	e.cache.Put(key, desc, e.ttl)
	e.logger.DebugContext(ctx, "template compiled", "template", key.String(), "ttl", e.ttl)
	return resolution{desc: desc, found: true}, nil
}
