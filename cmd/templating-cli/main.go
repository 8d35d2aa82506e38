package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating"
	"github.com/goliatone/go-templating/internal/prompt"
	"github.com/goliatone/go-templating/pkg/config"
	"github.com/goliatone/go-templating/pkg/engine"
	"github.com/goliatone/go-templating/pkg/render"
	"github.com/goliatone/go-templating/pkg/template"
)

func main() {
	dir := flag.String("dir", "", "templates directory (overrides templates.dir)")
	name := flag.String("template", "", "template path to render")
	locale := flag.String("locale", "", "locale tag, e.g. en-US")
	model := flag.String("model", "", "model as inline JSON or @file.json")
	data := flag.String("data", "", "auxiliary data as inline JSON or @file.json")
	renderer := flag.String("renderer", "text", "renderer to use (text, html, markdown)")
	interactive := flag.Bool("prompt", false, "ask for missing inputs and model fields")
	cfgPath := flag.String("config", "", "YAML configuration file")
	output := flag.String("output", "", "output file (stdout if empty)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, options{
		dir:         *dir,
		template:    *name,
		locale:      *locale,
		model:       *model,
		data:        *data,
		renderer:    *renderer,
		interactive: *interactive,
		config:      *cfgPath,
		output:      *output,
	}); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	dir         string
	template    string
	locale      string
	model       string
	data        string
	renderer    string
	interactive bool
	config      string
	output      string
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := config.Default()
	if opts.config != "" {
		loaded, err := config.Load(opts.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.dir != "" {
		cfg.Templates.Dir = opts.dir
	}

	modelValue, err := parseJSONMap(opts.model)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	dataValue, err := parseJSONMap(opts.data)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	registry := render.DefaultRegistry()
	req := prompt.Request{Template: opts.template, Renderer: opts.renderer, Model: modelValue}
	if opts.interactive {
		req, err = prompt.Collect(ctx, prompt.NewSurveyDriver(), req, promptOptions(cfg, registry))
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Template) == "" {
		return errors.New("template is required")
	}

	named, err := registry.Get(req.Renderer)
	if err != nil {
		return err
	}

	eng, err := templating.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	var renderOpts []engine.RenderOption
	if dataValue != nil {
		renderOpts = append(renderOpts, engine.WithData(dataValue))
	}
	if opts.locale != "" {
		tag, err := language.Parse(opts.locale)
		if err != nil {
			return fmt.Errorf("locale %q: %w", opts.locale, err)
		}
		renderOpts = append(renderOpts, engine.WithLocale(tag))
	}

	var (
		out string
		ok  bool
	)
	if req.Model != nil {
		out, ok, err = engine.RenderModelWith[template.Template, string](ctx, eng, req.Template, named, req.Model, renderOpts...)
	} else {
		out, ok, err = engine.RenderWith[template.Template, string](ctx, eng, req.Template, named, renderOpts...)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("template %q not found", req.Template)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		logger.Info("output written", "path", opts.output, "content_type", named.ContentType())
		return nil
	}
	fmt.Print(out)
	return nil
}

func parseJSONMap(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	payload := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, err
		}
		payload = b
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func promptOptions(cfg config.Config, registry *render.Registry) prompt.Options {
	opts := prompt.Options{Extension: cfg.Templates.Extension}
	for _, name := range registry.List() {
		named, err := registry.Get(name)
		if err != nil {
			continue
		}
		opts.Renderers = append(opts.Renderers, prompt.RendererChoice{Name: name, ContentType: named.ContentType()})
	}
	if cfg.Templates.Dir != "" {
		opts.Templates = os.DirFS(cfg.Templates.Dir)
	}
	return opts
}
