package render

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-templating/pkg/output"
	"github.com/goliatone/go-templating/pkg/template"
)

// MarkdownRenderer executes a template whose output is Markdown and converts
// the result to HTML. The HTML is passed through Policy, bluemonday's UGC
// policy when nil.
type MarkdownRenderer struct {
	Extensions parser.Extensions
	Flags      html.Flags
	Policy     *bluemonday.Policy
}

var _ Named = MarkdownRenderer{}

// NewMarkdownRenderer returns a renderer with CommonMark-ish extensions and
// heading ids enabled.
func NewMarkdownRenderer() MarkdownRenderer {
	return MarkdownRenderer{
		Extensions: parser.CommonExtensions | parser.AutoHeadingIDs,
		Flags:      html.CommonFlags,
	}
}

// Name returns "markdown".
func (MarkdownRenderer) Name() string {
	return "markdown"
}

func (MarkdownRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render executes unit and converts its Markdown output to sanitized HTML.
func (r MarkdownRenderer) Render(unit template.Template, data template.Data) (string, error) {
	raw, err := execute(unit, data, output.NewHTMLCollectionWriter())
	if err != nil {
		return "", err
	}

	// parsers keep state between calls
	p := parser.NewWithExtensions(r.Extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: r.Flags})
	out := markdown.ToHTML([]byte(raw), p, renderer)

	policy := r.Policy
	if policy == nil {
		policy = defaultPolicy()
	}
	return string(policy.SanitizeBytes(out)), nil
}
