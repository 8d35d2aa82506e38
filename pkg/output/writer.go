package output

import (
	"context"
	"io"
	"runtime"
	"strings"
	"unicode/utf8"
)

// NewLine is the line terminator appended by the WriteLine family.
var NewLine = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Buffered is implemented by writers that hold their output in memory and can
// replay it into another writer.
type Buffered interface {
	IsBuffering() bool
	CopyTo(w io.Writer) error
	CopyToContext(ctx context.Context, w io.Writer) error
}

// splicer is the capability CopyTo looks for on a destination before falling
// back to chunk-by-chunk writes.
type splicer interface {
	splice(entries *EntryCollection)
}

var (
	_ Buffered        = (*CollectionWriter)(nil)
	_ io.StringWriter = (*CollectionWriter)(nil)
	_ io.ByteWriter   = (*CollectionWriter)(nil)
	_ splicer         = (*CollectionWriter)(nil)
)

// CollectionWriter records every write as one chunk. It is not safe for
// concurrent use.
type CollectionWriter struct {
	entries *EntryCollection
	html    bool
}

// NewCollectionWriter returns an empty writer for plain text output.
func NewCollectionWriter() *CollectionWriter {
	return &CollectionWriter{entries: NewEntryCollection()}
}

// NewHTMLCollectionWriter returns an empty writer whose content is HTML.
// Template units escape interpolated values when writing to it.
func NewHTMLCollectionWriter() *CollectionWriter {
	return &CollectionWriter{entries: NewEntryCollection(), html: true}
}

// HTML reports whether the writer was created for HTML output.
func (w *CollectionWriter) HTML() bool {
	return w.html
}

// Entries exposes the underlying chunk collection.
func (w *CollectionWriter) Entries() *EntryCollection {
	return w.entries
}

// IsBuffering is always true.
func (w *CollectionWriter) IsBuffering() bool {
	return true
}

// Write appends p as a single chunk. Empty writes are ignored.
func (w *CollectionWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.entries.Add(string(p))
	return len(p), nil
}

// WriteString appends s as a single chunk. Empty strings are ignored.
func (w *CollectionWriter) WriteString(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	w.entries.Add(s)
	return len(s), nil
}

// WriteRune appends a one-character chunk.
func (w *CollectionWriter) WriteRune(r rune) (int, error) {
	if r < utf8.RuneSelf {
		w.entries.Add(string(byte(r)))
		return 1, nil
	}
	s := string(r)
	w.entries.Add(s)
	return len(s), nil
}

// WriteByte appends a one-byte chunk.
func (w *CollectionWriter) WriteByte(c byte) error {
	w.entries.Add(string([]byte{c}))
	return nil
}

// WriteLine appends s, when not empty, followed by NewLine.
func (w *CollectionWriter) WriteLine(s string) {
	_, _ = w.WriteString(s)
	w.entries.Add(NewLine)
}

// WriteLineRune appends r followed by NewLine.
func (w *CollectionWriter) WriteLineRune(r rune) {
	_, _ = w.WriteRune(r)
	w.entries.Add(NewLine)
}

// WriteLineBytes appends p, when not empty, followed by NewLine.
func (w *CollectionWriter) WriteLineBytes(p []byte) {
	_, _ = w.Write(p)
	w.entries.Add(NewLine)
}

// CopyTo replays the buffered output into dst. When dst is itself a
// CollectionWriter the chunk runs are spliced onto its collection; otherwise
// each chunk is written to dst in order.
func (w *CollectionWriter) CopyTo(dst io.Writer) error {
	if target, ok := dst.(splicer); ok {
		target.splice(w.entries)
		return nil
	}
	for value := range w.entries.All() {
		if _, err := io.WriteString(dst, value); err != nil {
			return err
		}
	}
	return nil
}

// CopyToContext behaves like CopyTo but checks ctx before each chunk written
// on the slow path. Chunks are written one at a time and in order.
func (w *CollectionWriter) CopyToContext(ctx context.Context, dst io.Writer) error {
	if target, ok := dst.(splicer); ok {
		target.splice(w.entries)
		return nil
	}
	for value := range w.entries.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(dst, value); err != nil {
			return err
		}
	}
	return nil
}

// String joins every chunk in order.
func (w *CollectionWriter) String() string {
	var sb strings.Builder
	sb.Grow(w.entries.Size())
	for value := range w.entries.All() {
		sb.WriteString(value)
	}
	return sb.String()
}

func (w *CollectionWriter) splice(entries *EntryCollection) {
	w.entries.AddCollection(entries)
}
