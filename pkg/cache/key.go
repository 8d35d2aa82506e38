package cache

import (
	"golang.org/x/text/language"
)

// Key identifies a compiled template by path and locale. Keys are comparable
// values, so two keys built from the same path and locale are interchangeable
// as map keys.
type Key struct {
	Path   string
	Locale string
}

// NewKey builds a Key using the canonical BCP 47 form of locale.
func NewKey(path string, locale language.Tag) Key {
	return Key{
		Path:   path,
		Locale: locale.String(),
	}
}

func (k Key) String() string {
	if k.Locale == "" {
		return k.Path
	}
	return k.Path + "@" + k.Locale
}
