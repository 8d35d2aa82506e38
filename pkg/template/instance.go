package template

import (
	"errors"
	"io"
	"reflect"
)

// Template is an activated, per-call instance of a compiled unit.
type Template interface {
	Context() *Context
	Descriptor() Descriptor
	// Model returns the bound model, or nil for model-less instances.
	Model() any
	Execute(w io.Writer, data Data) error
}

// Instance is a template without a model.
type Instance struct {
	desc Descriptor
	ctx  *Context
	self Template
}

// Activate builds a model-less instance of desc.
func Activate(desc Descriptor, ctx *Context) *Instance {
	inst := &Instance{desc: desc, ctx: ctx}
	inst.self = inst
	return inst
}

func (i *Instance) Context() *Context {
	return i.ctx
}

func (i *Instance) Descriptor() Descriptor {
	return i.desc
}

func (i *Instance) Model() any {
	return nil
}

// Execute runs the compiled unit, writing output to w.
func (i *Instance) Execute(w io.Writer, data Data) error {
	if i.desc.Unit == nil {
		return errors.New("template: descriptor has no unit")
	}
	return i.desc.Unit.Execute(w, i.self, data)
}

// ModelInstance is a template bound to a model of type M.
type ModelInstance[M any] struct {
	Instance
	model M
}

// ActivateModel builds an instance of desc bound to model. Binding fails with
// a TypeMismatchError when desc was compiled for a different model type.
func ActivateModel[M any](desc Descriptor, ctx *Context, model M) (*ModelInstance[M], error) {
	modelType := reflect.TypeFor[M]()
	if !desc.Accepts(modelType) {
		return nil, &TypeMismatchError{Actual: modelType, Expected: desc.ModelType}
	}
	inst := &ModelInstance[M]{
		Instance: Instance{desc: desc, ctx: ctx},
		model:    model,
	}
	inst.self = inst
	return inst, nil
}

func (m *ModelInstance[M]) Model() any {
	return m.model
}

// TypedModel returns the model without boxing it.
func (m *ModelInstance[M]) TypedModel() M {
	return m.model
}

var anyType = reflect.TypeFor[any]()

// ActivateValue binds model by its dynamic type. It serves callers that only
// hold an any, such as helpers rendering partials from inside a template.
func ActivateValue(desc Descriptor, ctx *Context, model any) (*ModelInstance[any], error) {
	if model != nil && desc.ModelType != nil && desc.ModelType != anyType {
		if actual := reflect.TypeOf(model); actual != desc.ModelType {
			return nil, &TypeMismatchError{Actual: actual, Expected: desc.ModelType}
		}
	}
	inst := &ModelInstance[any]{
		Instance: Instance{desc: desc, ctx: ctx},
		model:    model,
	}
	inst.self = inst
	return inst, nil
}
