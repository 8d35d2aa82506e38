package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Request holds the inputs gathered interactively.
type Request struct {
	Template string
	Renderer string
	Model    map[string]any
}

// Options describes what the user can pick from.
type Options struct {
	Renderers []RendererChoice
	// Templates, when set, feeds template path suggestions. Files are listed
	// without Extension and locale variants are skipped.
	Templates fs.FS
	Extension string
}

// Collect fills the gaps in req by asking the user: the template path when
// empty, the renderer when more than one is offered, then any number of
// model fields.
func Collect(ctx context.Context, d Driver, req Request, opts Options) (Request, error) {
	if d == nil {
		return req, errors.New("prompt: driver is nil")
	}

	if strings.TrimSpace(req.Template) == "" {
		name, err := d.TemplatePath(ctx, PathQuestion{Suggest: suggester(opts.Templates, opts.Extension)})
		if err != nil {
			return req, err
		}
		req.Template = name
	}
	req.Template = strings.TrimPrefix(strings.TrimSpace(req.Template), "./")
	if err := ValidateTemplatePath(req.Template); err != nil {
		return req, err
	}

	if len(opts.Renderers) > 1 {
		name, err := d.Renderer(ctx, RendererQuestion{Choices: opts.Renderers, Current: req.Renderer})
		if err != nil {
			return req, err
		}
		req.Renderer = name
	}

	if req.Model == nil {
		req.Model = make(map[string]any)
	}
	for {
		field, ok, err := d.ModelField(ctx)
		if err != nil {
			return req, err
		}
		if !ok {
			break
		}
		name := strings.TrimSpace(field.Name)
		if err := ValidateFieldName(name); err != nil {
			return req, err
		}
		req.Model[name] = fieldValue(field.Value)
	}
	return req, nil
}

// ValidateTemplatePath rejects paths the providers would refuse: absolute
// paths and paths escaping the templates root.
func ValidateTemplatePath(p string) error {
	p = strings.TrimPrefix(strings.TrimSpace(p), "./")
	if p == "" {
		return errors.New("template path is required")
	}
	if !fs.ValidPath(p) || p == "." {
		return fmt.Errorf("template path %q must be relative to the templates directory", p)
	}
	return nil
}

// ValidateFieldName accepts names templates can reach with model.<name>.
func ValidateFieldName(name string) error {
	if name == "" {
		return errors.New("field name is required")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("field name %q must be letters, digits and underscores, not starting with a digit", name)
		}
	}
	return nil
}

// fieldValue decodes JSON scalars so numeric and boolean fields compare and
// format as such in templates.
func fieldValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		switch v.(type) {
		case float64, bool, nil:
			return v
		}
	}
	return raw
}

func suggester(fsys fs.FS, ext string) func(string) []string {
	if fsys == nil {
		return nil
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return func(prefix string) []string {
		var out []string
		_ = fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			name := p
			if ext != "" {
				var ok bool
				if name, ok = strings.CutSuffix(name, ext); !ok {
					return nil
				}
			}
			if strings.Contains(path.Base(name), ".") {
				return nil
			}
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
			return nil
		})
		slices.Sort(out)
		return out
	}
}
