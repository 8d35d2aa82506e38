package provider

import (
	"context"
	"io"

	"golang.org/x/text/language"
)

// Chain asks each provider in turn and returns the first source found. An
// error from any provider stops the search.
func Chain(providers ...Provider) Provider {
	return Func(func(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
		for _, p := range providers {
			if p == nil {
				continue
			}
			rc, ok, err := p.Get(ctx, path, locale)
			if err != nil || ok {
				return rc, ok, err
			}
		}
		return nil, false, nil
	})
}
