package engine

import (
	"context"

	"golang.org/x/text/language"
)

type localeKey struct{}

// ContextWithLocale attaches the caller's ambient locale to ctx. Render calls
// without an explicit WithLocale option use it.
func ContextWithLocale(ctx context.Context, locale language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// LocaleFrom returns the locale attached by ContextWithLocale.
func LocaleFrom(ctx context.Context) (language.Tag, bool) {
	if ctx == nil {
		return language.Und, false
	}
	locale, ok := ctx.Value(localeKey{}).(language.Tag)
	return locale, ok
}
