package provider

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/goliatone/go-templating/internal/source"
)

// FS serves templates from an fs.FS.
type FS struct {
	files fs.FS
	lookup
}

var _ Provider = (*FS)(nil)

// NewFS constructs a provider reading from files.
func NewFS(files fs.FS, options ...Option) *FS {
	return &FS{files: files, lookup: newLookup(options)}
}

// Get returns the first candidate found for path under locale.
func (p *FS) Get(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
	for _, name := range p.candidates(path, locale) {
		rc, ok, err := source.OpenFS(ctx, p.files, name)
		if err != nil || ok {
			return rc, ok, err
		}
	}
	return nil, false, nil
}

// Dir serves templates from a directory on disk.
type Dir struct {
	root string
	lookup
}

var _ Provider = (*Dir)(nil)

// NewDir constructs a provider reading files below root.
func NewDir(root string, options ...Option) *Dir {
	return &Dir{root: filepath.Clean(root), lookup: newLookup(options)}
}

// FS exposes the directory as an fs.FS, handy for compiler include loaders.
func (p *Dir) FS() fs.FS {
	return os.DirFS(p.root)
}

// Get returns the first candidate found for path under locale.
func (p *Dir) Get(ctx context.Context, path string, locale language.Tag) (io.ReadCloser, bool, error) {
	for _, name := range p.candidates(path, locale) {
		rel := filepath.FromSlash(name)
		if !filepath.IsLocal(rel) {
			continue
		}
		rc, ok, err := source.OpenFile(ctx, filepath.Join(p.root, rel))
		if err != nil || ok {
			return rc, ok, err
		}
	}
	return nil, false, nil
}
