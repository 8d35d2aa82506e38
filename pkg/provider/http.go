package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/internal/source"
)

// HTTP serves templates from a remote base URL. A 404 counts as not found.
type HTTP struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	lookup
}

var _ Provider = (*HTTP)(nil)

// HTTPOption configures an HTTP provider.
type HTTPOption func(*HTTP)

// WithHTTPClient injects a custom client (proxies, transports, auth).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(p *HTTP) {
		if client != nil {
			p.client = client
		}
	}
}

// WithRequestTimeout caps each fetch.
func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(p *HTTP) {
		p.timeout = timeout
	}
}

// WithLookup applies lookup options (extension, localized names).
func WithLookup(options ...Option) HTTPOption {
	return func(p *HTTP) {
		p.lookup = newLookup(options)
	}
}

// NewHTTP constructs a provider fetching "<baseURL>/<candidate>".
func NewHTTP(baseURL string, options ...HTTPOption) *HTTP {
	p := &HTTP{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  http.DefaultClient,
		lookup:  newLookup(nil),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Get returns the first candidate found for path under locale.
func (p *HTTP) Get(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
	for _, name := range p.candidates(path, locale) {
		rc, ok, err := source.OpenHTTP(ctx, p.client, p.baseURL+"/"+name, p.timeout)
		if err != nil || ok {
			return rc, ok, err
		}
	}
	return nil, false, nil
}
