package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/cache"
	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/compiler/pongo2"
	"github.com/goliatone/go-templating/pkg/provider"
	"github.com/goliatone/go-templating/pkg/template"
)

// DefaultCacheTTL is used when no WithCacheTTL option is given.
const DefaultCacheTTL = 5 * time.Minute

// Option customises the engine configuration.
type Option func(*Engine)

// WithCompiler injects the compiler backend. Defaults to the pongo2 compiler.
func WithCompiler(c compiler.Compiler) Option {
	return func(e *Engine) {
		e.compiler = c
	}
}

// WithProvider injects the template source provider. Required.
func WithProvider(p provider.Provider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithCacheTTL sets how long compiled templates stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithPurgeInterval starts a janitor that physically drops expired cache
// entries. Expired entries are ignored on read either way.
func WithPurgeInterval(interval time.Duration) Option {
	return func(e *Engine) {
		e.purgeInterval = interval
	}
}

// WithDefaultLocale sets the locale used when neither the render options nor
// the context carry one.
func WithDefaultLocale(locale language.Tag) Option {
	return func(e *Engine) {
		e.defaultLocale = locale
	}
}

// WithLogger routes engine logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSingleFlight toggles sharing one compilation between concurrent misses
// for the same template. Enabled by default; when disabled concurrent misses
// each compile and the last cache write wins.
func WithSingleFlight(enabled bool) Option {
	return func(e *Engine) {
		e.singleFlight = enabled
	}
}

// WithMaxConcurrentRenders bounds the number of render goroutines running at
// once. Defaults to GOMAXPROCS.
func WithMaxConcurrentRenders(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRenders = int64(n)
		}
	}
}

// WithClock replaces time.Now for cache expiration.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine resolves, caches and renders templates. It owns its cache: two
// engines in one process never share compiled units.
type Engine struct {
	compiler      compiler.Compiler
	provider      provider.Provider
	ttl           time.Duration
	purgeInterval time.Duration
	defaultLocale language.Tag
	logger        *slog.Logger
	singleFlight  bool
	maxRenders    int64
	now           func() time.Time

	cache         *cache.Cache[template.Descriptor]
	flights       singleflight.Group
	renders       *semaphore.Weighted
	initialiseErr error
	closed        atomic.Bool
}

// New constructs an Engine applying any provided options. Missing optional
// dependencies are initialised with the built-in implementations; a missing
// provider is reported by every subsequent call.
func New(options ...Option) *Engine {
	e := &Engine{
		ttl:           DefaultCacheTTL,
		defaultLocale: language.Und,
		singleFlight:  true,
		maxRenders:    int64(runtime.GOMAXPROCS(0)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	e.applyDefaults()
	return e
}

func (e *Engine) applyDefaults() {
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.compiler == nil {
		c, err := pongo2.New()
		if err != nil {
			e.initialiseErr = fmt.Errorf("default compiler: %w", err)
		} else {
			e.compiler = c
		}
	}
	if e.provider == nil && e.initialiseErr == nil {
		e.initialiseErr = errors.New("resource provider is required")
	}

	var cacheOpts []cache.Option
	if e.now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(e.now))
	}
	e.cache = cache.New[template.Descriptor](cacheOpts...)
	e.cache.StartJanitor(e.purgeInterval)

	e.renders = semaphore.NewWeighted(e.maxRenders)
}

// Provider returns the source provider templates are resolved from.
func (e *Engine) Provider() provider.Provider {
	return e.provider
}

// Invalidate drops the cached unit for path under locale.
func (e *Engine) Invalidate(path string, locale language.Tag) {
	e.cache.Remove(cache.NewKey(path, locale))
}

// ClearCache drops every cached unit.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// CacheTTL reports the remaining lifetime of the cached unit for path under
// locale, or -1 when nothing valid is cached.
func (e *Engine) CacheTTL(path string, locale language.Tag) time.Duration {
	return e.cache.TTL(cache.NewKey(path, locale))
}

// Close stops background work and releases the cache. Calls made afterwards
// fail with ErrClosed.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.cache.Stop()
	e.cache.Clear()
	return nil
}

func (e *Engine) ready() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.initialiseErr
}
