package config

import (
	"fmt"
	"log/slog"

	"github.com/goliatone/go-templating/pkg/compiler/pongo2"
	"github.com/goliatone/go-templating/pkg/engine"
	"github.com/goliatone/go-templating/pkg/provider"
)

// Provider builds the source provider described by the templates section.
func (c Config) Provider() provider.Provider {
	lookup := []provider.Option{provider.WithExtension(c.Templates.Extension)}
	if c.Templates.Localized != nil {
		lookup = append(lookup, provider.WithLocalizedNames(*c.Templates.Localized))
	}

	var providers []provider.Provider
	if c.Templates.Dir != "" {
		providers = append(providers, provider.NewDir(c.Templates.Dir, lookup...))
	}
	if c.Templates.BaseURL != "" {
		providers = append(providers, provider.NewHTTP(c.Templates.BaseURL,
			provider.WithLookup(lookup...),
			provider.WithRequestTimeout(c.Templates.RequestTimeout),
		))
	}
	if len(providers) == 1 {
		return providers[0]
	}
	return provider.Chain(providers...)
}

// EngineOptions translates the configuration into engine options. The
// compiler is a pongo2 compiler able to include files from templates.dir.
func (c Config) EngineOptions(logger *slog.Logger) ([]engine.Option, error) {
	locale, err := c.DefaultLocale()
	if err != nil {
		return nil, err
	}

	var compilerOpts []pongo2.Option
	if c.Templates.Dir != "" {
		compilerOpts = append(compilerOpts, pongo2.WithBaseDir(c.Templates.Dir))
	}
	comp, err := pongo2.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("config: compiler: %w", err)
	}

	opts := []engine.Option{
		engine.WithProvider(c.Provider()),
		engine.WithCompiler(comp),
		engine.WithCacheTTL(c.Cache.TTL),
		engine.WithPurgeInterval(c.Cache.PurgeInterval),
		engine.WithDefaultLocale(locale),
		engine.WithMaxConcurrentRenders(c.Render.MaxConcurrent),
		engine.WithLogger(logger),
	}
	if c.Cache.SingleFlight != nil {
		opts = append(opts, engine.WithSingleFlight(*c.Cache.SingleFlight))
	}
	return opts, nil
}
