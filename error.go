package multibind

import (
	"fmt"
	"reflect"
)

// BindingError reports a failure registering a provider or aggregate
// collector with the host framework, or an invalid aggregate discovered
// while dig assembles it (such as duplicate map keys).
type BindingError struct {
	Message        string
	ReferencedType reflect.Type
	SourceError    error
}

func (e *BindingError) Error() string {
	if e.SourceError == nil {
		return fmt.Sprintf("%s: %v", e.Message, e.ReferencedType)
	} else {
		return fmt.Sprintf("%s: %v (%v)", e.Message, e.ReferencedType, e.Unwrap().Error())
	}
}

func (e *BindingError) Unwrap() error {
	return e.SourceError
}
