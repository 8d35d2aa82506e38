package render

import (
	"errors"

	"github.com/goliatone/go-templating/pkg/output"
	"github.com/goliatone/go-templating/pkg/template"
)

// StringRenderer executes a template into a CollectionWriter and returns the
// joined output. Interpolated values are written unescaped.
type StringRenderer struct{}

var _ Named = StringRenderer{}

// Name returns "text".
func (StringRenderer) Name() string {
	return "text"
}

func (StringRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render executes unit with data.
func (StringRenderer) Render(unit template.Template, data template.Data) (string, error) {
	return execute(unit, data, output.NewCollectionWriter())
}

func execute(unit template.Template, data template.Data, w *output.CollectionWriter) (string, error) {
	if unit == nil {
		return "", errors.New("render: template is nil")
	}
	if err := unit.Execute(w, data); err != nil {
		return "", err
	}
	return w.String(), nil
}
