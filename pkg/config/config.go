// Package config loads engine settings from YAML documents.
//
//	templates:
//	  dir: ./templates
//	  extension: .tpl
//	  request_timeout: 5s
//	cache:
//	  ttl: 60s
//	  purge_interval: 5m
//	  single_flight: true
//	render:
//	  max_concurrent: 8
//	locale:
//	  default: en
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML document.
type Config struct {
	Templates Templates `yaml:"templates"`
	Cache     Cache     `yaml:"cache"`
	Render    Render    `yaml:"render"`
	Locale    Locale    `yaml:"locale"`
}

// Templates selects where sources are read from. Dir and BaseURL may both be
// set; the directory is consulted first.
type Templates struct {
	Dir       string `yaml:"dir"`
	BaseURL   string `yaml:"base_url"`
	Extension string `yaml:"extension"`
	// Localized toggles "<name>.<locale><ext>" lookups. Nil means enabled.
	Localized *bool `yaml:"localized"`

	// RequestTimeout caps each fetch from BaseURL. Zero means no cap.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type Cache struct {
	TTL           time.Duration `yaml:"ttl"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
	SingleFlight  *bool         `yaml:"single_flight"`
}

type Render struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type Locale struct {
	Default string `yaml:"default"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Templates: Templates{Extension: ".tpl"},
		Cache:     Cache{TTL: 5 * time.Minute},
	}
}

// Load reads and parses a YAML file from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFS reads and parses a YAML file from fsys.
func LoadFS(fsys fs.FS, name string) (Config, error) {
	if fsys == nil {
		return Config{}, errors.New("config: fs is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", name, err)
	}
	return Parse(data)
}

// Parse decodes data on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration mistakes early.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Templates.Dir) == "" && strings.TrimSpace(c.Templates.BaseURL) == "" {
		return errors.New("config: templates.dir or templates.base_url is required")
	}
	if c.Templates.RequestTimeout < 0 {
		return fmt.Errorf("config: templates.request_timeout must not be negative, got %s", c.Templates.RequestTimeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.PurgeInterval < 0 {
		return fmt.Errorf("config: cache.purge_interval must not be negative, got %s", c.Cache.PurgeInterval)
	}
	if c.Render.MaxConcurrent < 0 {
		return fmt.Errorf("config: render.max_concurrent must not be negative, got %d", c.Render.MaxConcurrent)
	}
	if _, err := c.DefaultLocale(); err != nil {
		return err
	}
	return nil
}

// DefaultLocale parses locale.default. An empty value yields language.Und.
func (c Config) DefaultLocale() (language.Tag, error) {
	raw := strings.TrimSpace(c.Locale.Default)
	if raw == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und, fmt.Errorf("config: locale.default %q: %w", raw, err)
	}
	return tag, nil
}
