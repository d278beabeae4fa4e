package multibind

import (
	"fmt"
	"reflect"
)

// Key identifies an injectable value in the host framework: its type plus an
// optional qualifier. Name and Group carry dig's `name` and `group` tags; at
// most one of them is set. Qualified keys are issued by the aggregate
// binders and rewrapped by the scanner - callers never assemble them
// directly.
type Key struct {
	Type  reflect.Type
	Name  string
	Group string
}

func (k Key) String() string {
	switch {
	case k.Group != "":
		return fmt.Sprintf("%v[group=%s]", k.Type, k.Group)
	case k.Name != "":
		return fmt.Sprintf("%v[name=%s]", k.Type, k.Name)
	default:
		return fmt.Sprintf("%v", k.Type)
	}
}

// qualified reports whether the key carries an aggregate qualifier, i.e.
// whether the scanner rewrote it.
func (k Key) qualified() bool {
	return k.Name != "" || k.Group != ""
}

func typeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(&zero).Elem()
}
