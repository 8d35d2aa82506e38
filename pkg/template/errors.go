package template

import (
	"fmt"
	"reflect"
)

// TypeMismatchError reports that a template or model did not have the type a
// caller expected. It signals misuse rather than bad data.
type TypeMismatchError struct {
	Actual   reflect.Type
	Expected reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("template: type mismatch: got %s, expected %s", typeName(e.Actual), typeName(e.Expected))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
