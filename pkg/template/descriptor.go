package template

import (
	"io"
	"reflect"
)

// Data is the auxiliary, loosely typed payload passed alongside a model when
// rendering.
type Data map[string]any

// Unit is the invokable body produced by a compiler. Implementations must be
// safe for concurrent Execute calls since a cached unit is shared by every
// activation.
type Unit interface {
	Execute(w io.Writer, tpl Template, data Data) error
}

// HTMLWriter is implemented by writers whose content ends up as HTML. Units
// that escape interpolated values only do so when IsHTML reports true.
type HTMLWriter interface {
	io.Writer
	HTML() bool
}

// IsHTML reports whether w asked for HTML-escaped output.
func IsHTML(w io.Writer) bool {
	hw, ok := w.(HTMLWriter)
	return ok && hw.HTML()
}

// UnitFunc adapts a function to Unit.
type UnitFunc func(w io.Writer, tpl Template, data Data) error

// Execute calls f.
func (f UnitFunc) Execute(w io.Writer, tpl Template, data Data) error {
	return f(w, tpl, data)
}

// Descriptor is the compiled form of a template source. ModelType is nil when
// the unit was compiled without a model constraint.
type Descriptor struct {
	Name      string
	ModelType reflect.Type
	Unit      Unit
}

// IsZero reports whether d holds no unit.
func (d Descriptor) IsZero() bool {
	return d.Unit == nil
}

// Accepts reports whether a model of type t can be bound to d.
func (d Descriptor) Accepts(t reflect.Type) bool {
	return d.ModelType == nil || d.ModelType == t
}
