package engine_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/pkg/compiler"
	"github.com/goliatone/go-templating/pkg/compiler/pongo2"
	"github.com/goliatone/go-templating/pkg/engine"
	"github.com/goliatone/go-templating/pkg/provider"
	"github.com/goliatone/go-templating/pkg/render"
	"github.com/goliatone/go-templating/pkg/template"
	"github.com/goliatone/go-templating/pkg/testsupport"
)

type fixture struct {
	provider *testsupport.MapProvider
	compiler *testsupport.CountingCompiler
	clock    *testsupport.Clock
	engine   *engine.Engine
}

func newFixture(t *testing.T, sources map[string]string, opts ...engine.Option) *fixture {
	t.Helper()
	f := &fixture{
		provider: testsupport.NewMapProvider(sources),
		compiler: &testsupport.CountingCompiler{Next: testsupport.EchoCompiler},
		clock:    testsupport.NewClock(),
	}
	base := []engine.Option{
		engine.WithProvider(f.provider),
		engine.WithCompiler(f.compiler),
		engine.WithClock(f.clock.Now),
	}
	f.engine = engine.New(append(base, opts...)...)
	t.Cleanup(func() { _ = f.engine.Close() })
	return f
}

func TestEngine_MissingTemplateIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)

	out, ok, err := f.engine.Render(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || out != "" {
		t.Fatalf("expected absent result, got %q ok=%v", out, ok)
	}

	_, ok, err = engine.RenderModel(context.Background(), f.engine, "missing", 1)
	if err != nil || ok {
		t.Fatalf("expected absent model render, got ok=%v err=%v", ok, err)
	}
	if f.compiler.Calls() != 0 {
		t.Fatalf("compiler must not run for missing sources")
	}
}

func TestEngine_CacheHitSkipsCompilation(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi {model}"})

	for i := 0; i < 3; i++ {
		out, ok, err := engine.RenderModel(context.Background(), f.engine, "greeting", "Ada")
		if err != nil || !ok {
			t.Fatalf("render %d: ok=%v err=%v", i, ok, err)
		}
		if out != "Hi Ada" {
			t.Fatalf("render %d: got %q", i, out)
		}
	}

	if f.compiler.Calls() != 1 {
		t.Fatalf("expected 1 compilation, got %d", f.compiler.Calls())
	}
	if f.provider.Calls() != 1 {
		t.Fatalf("expected 1 source lookup, got %d", f.provider.Calls())
	}
}

func TestEngine_TTLExpiryRecompilesOnce(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"}, engine.WithCacheTTL(60*time.Second))
	ctx := context.Background()

	renderOnce := func() {
		t.Helper()
		if _, ok, err := f.engine.Render(ctx, "greeting"); err != nil || !ok {
			t.Fatalf("render: ok=%v err=%v", ok, err)
		}
	}

	renderOnce()
	f.clock.Advance(59 * time.Second)
	renderOnce()
	if f.compiler.Calls() != 1 {
		t.Fatalf("expected cached unit before expiry, got %d compilations", f.compiler.Calls())
	}

	f.clock.Advance(time.Second)
	renderOnce()
	renderOnce()
	if f.compiler.Calls() != 2 {
		t.Fatalf("expected exactly one recompilation after expiry, got %d", f.compiler.Calls())
	}
}

func TestEngine_CacheTTLAndInvalidate(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"}, engine.WithCacheTTL(time.Minute))
	ctx := context.Background()

	if got := f.engine.CacheTTL("greeting", language.Und); got != -1 {
		t.Fatalf("expected -1 before first render, got %s", got)
	}
	_, _, _ = f.engine.Render(ctx, "greeting")
	f.clock.Advance(20 * time.Second)
	if got := f.engine.CacheTTL("greeting", language.Und); got != 40*time.Second {
		t.Fatalf("expected 40s remaining, got %s", got)
	}

	f.engine.Invalidate("greeting", language.Und)
	_, _, _ = f.engine.Render(ctx, "greeting")
	if f.compiler.Calls() != 2 {
		t.Fatalf("expected recompilation after Invalidate, got %d", f.compiler.Calls())
	}

	f.engine.ClearCache()
	_, _, _ = f.engine.Render(ctx, "greeting")
	if f.compiler.Calls() != 3 {
		t.Fatalf("expected recompilation after ClearCache, got %d", f.compiler.Calls())
	}
}

func TestEngine_CacheIsKeyedByLocale(t *testing.T) {
	f := newFixture(t, map[string]string{
		"greeting":    "Hello",
		"greeting@fr": "Bonjour",
	})
	ctx := context.Background()

	en, _, _ := f.engine.Render(ctx, "greeting", engine.WithLocale(language.English))
	fr, _, _ := f.engine.Render(engine.ContextWithLocale(ctx, language.French), "greeting")
	override, _, _ := f.engine.Render(engine.ContextWithLocale(ctx, language.French), "greeting", engine.WithLocale(language.English))

	if en != "Hello" || fr != "Bonjour" || override != "Hello" {
		t.Fatalf("unexpected outputs en=%q fr=%q override=%q", en, fr, override)
	}
	if f.compiler.Calls() != 2 {
		t.Fatalf("expected one compilation per locale, got %d", f.compiler.Calls())
	}
}

func TestEngine_DefaultLocale(t *testing.T) {
	f := newFixture(t, map[string]string{
		"greeting":    "Hello",
		"greeting@de": "Hallo",
	}, engine.WithDefaultLocale(language.German))

	out, _, err := f.engine.Render(context.Background(), "greeting")
	if err != nil || out != "Hallo" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestEngine_PassesModelTypeToCompiler(t *testing.T) {
	f := newFixture(t, map[string]string{"a": "x", "b": "y"})
	ctx := context.Background()

	_, _, _ = engine.RenderModel(ctx, f.engine, "a", 42)
	_, _, _ = f.engine.Render(ctx, "b")

	types := f.compiler.ModelTypes()
	if len(types) != 2 {
		t.Fatalf("expected 2 compilations, got %d", len(types))
	}
	if types[0] != reflect.TypeFor[int]() {
		t.Fatalf("expected int model type, got %v", types[0])
	}
	if types[1] != nil {
		t.Fatalf("expected nil model type for model-less render, got %v", types[1])
	}
}

func TestEngine_GreetingWithPongo2(t *testing.T) {
	comp, err := pongo2.New()
	if err != nil {
		t.Fatalf("compiler: %v", err)
	}
	eng := engine.New(
		engine.WithProvider(testsupport.NewMapProvider(map[string]string{
			"greeting": "Hello, {{ model.name }}{{ punctuation }}",
		})),
		engine.WithCompiler(comp),
		engine.WithCacheTTL(60*time.Second),
	)
	defer eng.Close()

	type user struct {
		Name string `json:"name"`
	}
	out, ok, err := engine.RenderModel(context.Background(), eng, "greeting", user{Name: "Ada"},
		engine.WithData(map[string]any{"punctuation": "!"}))
	if err != nil || !ok {
		t.Fatalf("render: ok=%v err=%v", ok, err)
	}
	if out != "Hello, Ada!" {
		t.Fatalf("got %q", out)
	}
}

func TestEngine_RendererTypeMismatch(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi {model}"})

	var called atomic.Bool
	stringOnly := render.RendererFunc[*template.ModelInstance[string], string](
		func(unit *template.ModelInstance[string], _ template.Data) (string, error) {
			called.Store(true)
			return unit.TypedModel(), nil
		})

	_, ok, err := engine.RenderModelWith[*template.ModelInstance[string], string](context.Background(), f.engine, "greeting", stringOnly, 42)
	var mismatch *template.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		t.Fatalf("type mismatch must not be wrapped, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false on mismatch")
	}
	if called.Load() {
		t.Fatalf("renderer must not be invoked on mismatch")
	}

	f.engine.ClearCache()
	out, ok, err := engine.RenderModelWith[*template.ModelInstance[string], string](context.Background(), f.engine, "greeting", stringOnly, "Ada")
	if err != nil || !ok || out != "Ada" {
		t.Fatalf("matching render: out=%q ok=%v err=%v", out, ok, err)
	}
}

func TestEngine_ModelTypeMismatchAgainstCachedUnit(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi {model}"})
	ctx := context.Background()

	if _, _, err := engine.RenderModel(ctx, f.engine, "greeting", "Ada"); err != nil {
		t.Fatalf("first render: %v", err)
	}
	_, _, err := engine.RenderModel(ctx, f.engine, "greeting", 42)

	var mismatch *template.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if _, isMismatch := err.(*template.TypeMismatchError); !isMismatch {
		t.Fatalf("expected unwrapped TypeMismatchError, got %T", err)
	}
}

func TestEngine_CompilationErrorIsDistinct(t *testing.T) {
	f := newFixture(t, map[string]string{"broken": "!unexpected token"})

	_, ok, err := f.engine.Render(context.Background(), "broken")
	if ok {
		t.Fatalf("expected ok=false")
	}

	var compileErr *compiler.CompilationError
	if !errors.As(err, &compileErr) {
		t.Fatalf("expected CompilationError, got %v", err)
	}
	var engineErr *engine.Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected engine.Error, got %T", err)
	}
	if engineErr.Op != "resolve" || engineErr.Message != "" {
		t.Fatalf("unexpected engine error %+v", engineErr)
	}

	_, _, _ = f.engine.Render(context.Background(), "broken")
	if f.compiler.Calls() != 2 {
		t.Fatalf("failed compilations must not be cached, got %d calls", f.compiler.Calls())
	}
}

func TestEngine_ProviderErrorIsTranslated(t *testing.T) {
	boom := errors.New("disk on fire")
	eng := engine.New(engine.WithProvider(provider.Func(func(context.Context, string, language.Tag) (io.ReadCloser, bool, error) {
		return nil, false, boom
	})), engine.WithCompiler(testsupport.EchoCompiler))
	defer eng.Close()

	_, _, err := eng.Render(context.Background(), "greeting")

	var engineErr *engine.Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected engine.Error, got %v", err)
	}
	if engineErr.Message != "cannot resolve template type" {
		t.Fatalf("unexpected message %q", engineErr.Message)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), `engine: resolve "greeting": cannot resolve template type: disk on fire`) {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestEngine_RendererFailuresAreWrapped(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"})
	boom := errors.New("renderer failed")

	tests := []struct {
		name     string
		renderer render.Renderer[template.Template, string]
		check    func(t *testing.T, err error)
	}{
		{
			name: "error",
			renderer: render.RendererFunc[template.Template, string](func(template.Template, template.Data) (string, error) {
				return "", boom
			}),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, boom) {
					t.Fatalf("expected cause to be preserved, got %v", err)
				}
			},
		},
		{
			name: "panic",
			renderer: render.RendererFunc[template.Template, string](func(template.Template, template.Data) (string, error) {
				panic("kaboom")
			}),
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "panic: kaboom") {
					t.Fatalf("expected panic message, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := engine.RenderWith(context.Background(), f.engine, "greeting", tt.renderer)
			if ok {
				t.Fatalf("expected ok=false")
			}
			var engineErr *engine.Error
			if !errors.As(err, &engineErr) {
				t.Fatalf("expected engine.Error, got %v", err)
			}
			if engineErr.Op != "render" || engineErr.Path != "greeting" {
				t.Fatalf("unexpected engine error %+v", engineErr)
			}
			tt.check(t, err)
		})
	}
}

func TestEngine_CancelledWhileRendering(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"})
	release := make(chan struct{})
	defer close(release)

	started := make(chan struct{})
	blocking := render.RendererFunc[template.Template, string](func(template.Template, template.Data) (string, error) {
		close(started)
		<-release
		return "late", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, ok, err := engine.RenderWith[template.Template, string](ctx, f.engine, "greeting", blocking)
	if ok {
		t.Fatalf("expected ok=false")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_ConcurrentMissesCompileOnce(t *testing.T) {
	gate := make(chan struct{})
	var calls atomic.Int64
	slow := compiler.CompilerFunc(func(ctx context.Context, name string, src io.Reader, modelType reflect.Type) (template.Descriptor, error) {
		calls.Add(1)
		<-gate
		return testsupport.EchoCompiler.Compile(ctx, name, src, modelType)
	})

	eng := engine.New(
		engine.WithProvider(testsupport.NewMapProvider(map[string]string{"greeting": "Hi"})),
		engine.WithCompiler(slow),
	)
	defer eng.Close()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, ok, err := eng.Render(context.Background(), "greeting")
			if err == nil && (!ok || out != "Hi") {
				err = errors.New("unexpected output " + out)
			}
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 compilation, got %d", got)
	}
}

func TestEngine_CancelledCallerDoesNotFailSharedResolve(t *testing.T) {
	started := make(chan struct{}, 2)
	gate := make(chan struct{})
	blocking := provider.Func(func(ctx context.Context, path string, _ language.Tag) (io.ReadCloser, bool, error) {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		return io.NopCloser(strings.NewReader("Hi")), true, nil
	})

	eng := engine.New(
		engine.WithProvider(blocking),
		engine.WithCompiler(testsupport.EchoCompiler),
	)
	defer eng.Close()

	type result struct {
		out string
		ok  bool
		err error
	}

	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstDone := make(chan result, 1)
	go func() {
		out, ok, err := eng.Render(first, "greeting")
		firstDone <- result{out, ok, err}
	}()
	<-started

	secondDone := make(chan result, 1)
	go func() {
		out, ok, err := eng.Render(context.Background(), "greeting")
		secondDone <- result{out, ok, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	r := <-firstDone
	if !errors.Is(r.err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", r.err)
	}
	var engineErr *engine.Error
	if !errors.As(r.err, &engineErr) {
		t.Fatalf("cancelled caller: expected *engine.Error, got %T", r.err)
	}

	close(gate)
	r = <-secondDone
	if r.err != nil || !r.ok || r.out != "Hi" {
		t.Fatalf("waiting caller: out=%q ok=%v err=%v", r.out, r.ok, r.err)
	}
	if len(started) != 0 {
		t.Fatalf("expected one shared source lookup")
	}

	if out, ok, err := eng.Render(context.Background(), "greeting"); err != nil || !ok || out != "Hi" {
		t.Fatalf("cached render: out=%q ok=%v err=%v", out, ok, err)
	}
}

func TestEngine_WithoutSingleFlightStillRenders(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"}, engine.WithSingleFlight(false), engine.WithMaxConcurrentRenders(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out, ok, err := f.engine.Render(context.Background(), "greeting"); err != nil || !ok || out != "Hi" {
				t.Errorf("render: out=%q ok=%v err=%v", out, ok, err)
			}
		}()
	}
	wg.Wait()

	if calls := f.compiler.Calls(); calls < 1 || calls > 8 {
		t.Fatalf("unexpected compilation count %d", calls)
	}
}

func TestEngine_EnginesDoNotShareCaches(t *testing.T) {
	sources := map[string]string{"greeting": "Hi"}
	a := newFixture(t, sources)
	b := newFixture(t, sources)

	_, _, _ = a.engine.Render(context.Background(), "greeting")
	_, _, _ = b.engine.Render(context.Background(), "greeting")

	if a.compiler.Calls() != 1 || b.compiler.Calls() != 1 {
		t.Fatalf("expected each engine to compile once, got %d and %d", a.compiler.Calls(), b.compiler.Calls())
	}
}

func TestEngine_Close(t *testing.T) {
	f := newFixture(t, map[string]string{"greeting": "Hi"}, engine.WithPurgeInterval(time.Millisecond))

	if err := f.engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.engine.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, _, err := f.engine.Render(context.Background(), "greeting"); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestEngine_RequiresProviderAndContext(t *testing.T) {
	eng := engine.New()
	defer eng.Close()
	if _, _, err := eng.Render(context.Background(), "greeting"); err == nil {
		t.Fatalf("expected error without provider")
	}

	f := newFixture(t, map[string]string{"greeting": "Hi"})
	var nilCtx context.Context
	if _, _, err := f.engine.Resolve(nilCtx, "greeting", language.Und, nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestEngine_EarlyFailuresAreEngineErrors(t *testing.T) {
	noProvider := engine.New()
	defer noProvider.Close()

	f := newFixture(t, map[string]string{"greeting": "Hi"})
	closed := newFixture(t, map[string]string{"greeting": "Hi"})
	_ = closed.engine.Close()

	var nilCtx context.Context
	cases := []struct {
		name string
		call func() error
		is   error
	}{
		{"no provider", func() error {
			_, _, err := noProvider.Render(context.Background(), "greeting")
			return err
		}, nil},
		{"closed", func() error {
			_, _, err := closed.engine.Render(context.Background(), "greeting")
			return err
		}, engine.ErrClosed},
		{"nil context", func() error {
			_, _, err := f.engine.Resolve(nilCtx, "greeting", language.Und, nil)
			return err
		}, nil},
		{"nil renderer", func() error {
			_, _, err := engine.RenderWith[template.Template, string](context.Background(), f.engine, "greeting", nil)
			return err
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var engineErr *engine.Error
			if !errors.As(err, &engineErr) {
				t.Fatalf("expected *engine.Error, got %T: %v", err, err)
			}
			if engineErr.Path != "greeting" {
				t.Fatalf("unexpected path %q", engineErr.Path)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v in chain, got %v", tc.is, err)
			}
		})
	}
}

func TestEngine_DefaultCompilerRenders(t *testing.T) {
	eng := engine.New(engine.WithProvider(testsupport.NewMapProvider(map[string]string{
		"greeting": "Hello, {{ model.name }}",
	})))
	defer eng.Close()

	out, ok, err := engine.RenderModel(context.Background(), eng, "greeting", map[string]any{"name": "Ada"})
	if err != nil || !ok {
		t.Fatalf("render: ok=%v err=%v", ok, err)
	}
	if out != "Hello, Ada" {
		t.Fatalf("got %q", out)
	}
}

func TestEngine_EscapingFollowsRenderer(t *testing.T) {
	eng := engine.New(engine.WithProvider(testsupport.NewMapProvider(map[string]string{
		"greeting": "Hello, {{ model }}",
		"card":     `<p>{{ tool.Render("name", model)|safe }}</p>`,
		"name":     "<b>{{ model }}</b>",
	})))
	defer eng.Close()
	ctx := context.Background()

	out, _, err := engine.RenderModel(ctx, eng, "greeting", "Tom & <Jerry>")
	if err != nil || out != "Hello, Tom & <Jerry>" {
		t.Fatalf("text: got %q, %v", out, err)
	}

	html := render.NewSanitizedHTMLRenderer(nil)
	out, _, err = engine.RenderModelWith[template.Template, string](ctx, eng, "greeting", html, "Tom & <Jerry>")
	if err != nil || out != "Hello, Tom &amp; &lt;Jerry&gt;" {
		t.Fatalf("html: got %q, %v", out, err)
	}

	out, _, err = engine.RenderModel(ctx, eng, "card", "<i>x</i>")
	if err != nil || out != "<p><b><i>x</i></b></p>" {
		t.Fatalf("text partial: got %q, %v", out, err)
	}
	out, _, err = engine.RenderModelWith[template.Template, string](ctx, eng, "card", html, "<i>x</i>")
	if err != nil || out != "<p><b>&lt;i&gt;x&lt;/i&gt;</b></p>" {
		t.Fatalf("html partial: got %q, %v", out, err)
	}
}

func TestEngine_ToolRendersPartials(t *testing.T) {
	comp, err := pongo2.New()
	if err != nil {
		t.Fatalf("compiler: %v", err)
	}
	eng := engine.New(
		engine.WithProvider(testsupport.NewMapProvider(map[string]string{
			"page":         `Hi {{ model.name }} {{ tool.Render("footer", model)|safe }}`,
			"footer":       `[{{ model.name }} {{ ctx.path }} {{ ctx.locale }}]`,
			"footer@fr":    `[{{ model.name }} pied {{ ctx.locale }}]`,
			"with-missing": `x{{ tool.Render("nope", model) }}y`,
		})),
		engine.WithCompiler(comp),
	)
	defer eng.Close()

	model := map[string]any{"name": "Ada"}
	ctx := context.Background()

	out, _, err := engine.RenderModel(ctx, eng, "page", model)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hi Ada [Ada footer und]" {
		t.Fatalf("got %q", out)
	}

	out, _, err = engine.RenderModel(ctx, eng, "page", model, engine.WithLocale(language.French))
	if err != nil {
		t.Fatalf("render fr: %v", err)
	}
	if out != "Hi Ada [Ada pied fr]" {
		t.Fatalf("got %q", out)
	}

	out, _, err = engine.RenderModel(ctx, eng, "with-missing", model)
	if err != nil || out != "xy" {
		t.Fatalf("missing partial: got %q, %v", out, err)
	}
}
