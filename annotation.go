package multibind

import "reflect"

// Annotation marks a provider constructor as contributing to one of the
// aggregate bindings this package manages. Exactly three kinds exist:
// SetContribution, MapContribution and OptionalContribution. The scanner
// dispatches on the concrete kind and panics on anything else.
type Annotation interface {
	contribution()
}

// SetContribution requests that the constructor's value be added to the set
// of its declared type.
type SetContribution struct{}

func (SetContribution) contribution() {}

// MapContribution requests that the constructor's value be added to a map of
// its declared type. The map key is derived from a map-key annotation
// attached to the same binding; if no single unambiguous map-key annotation
// is present, the binding is registered with its key unmodified.
type MapContribution struct{}

func (MapContribution) contribution() {}

// OptionalKind selects which side of an optional binding a contribution
// fills.
type OptionalKind int

const (
	// Default contributes the value used when no actual value is bound.
	Default OptionalKind = iota

	// Actual contributes the preferred value, overriding any default.
	Actual
)

// OptionalContribution requests that the constructor's value back the
// optional binding of its declared type, either as the default or the actual
// value.
type OptionalContribution struct {
	Kind OptionalKind
}

func (OptionalContribution) contribution() {}

// MapKeyOptions configures how a map-key annotation type derives its
// effective key.
type MapKeyOptions struct {
	// Unwrap extracts the key from the annotation's single exported
	// no-argument accessor method instead of using the whole annotation
	// value.
	Unwrap bool
}

// MapKeyed marks an annotation type as usable for deriving map keys. In
// non-unwrap mode the whole annotation value becomes the key, so the
// annotation type must be comparable.
type MapKeyed interface {
	MapKey() MapKeyOptions
}

// Binding pairs a provider constructor with the annotation that triggers
// aggregate registration, plus any additional annotations attached to it.
// Bindings are created with IntoSet, IntoMap and IntoOptional and collected
// into a Module.
type Binding struct {
	trigger     Annotation
	ctor        any
	valueType   reflect.Type
	annotations []any
}

// IntoSet declares ctor as a set contribution of type T. The constructor
// must declare a result of exactly type T; it may take any injectable
// parameters and may return a trailing error.
func IntoSet[T any](ctor any, annotations ...any) *Binding {
	return &Binding{
		trigger:     SetContribution{},
		ctor:        ctor,
		valueType:   typeOf[T](),
		annotations: annotations,
	}
}

// IntoMap declares ctor as a map contribution of type T. One of the
// annotations should be a value whose type implements MapKeyed; it supplies
// the entry's key. With no usable map-key annotation the constructor is
// registered as a plain provider of T and no map entry is created.
func IntoMap[T any](ctor any, annotations ...any) *Binding {
	return &Binding{
		trigger:     MapContribution{},
		ctor:        ctor,
		valueType:   typeOf[T](),
		annotations: annotations,
	}
}

// IntoOptional declares ctor as the default or actual contribution to the
// optional binding of type T.
func IntoOptional[T any](ctor any, kind OptionalKind, annotations ...any) *Binding {
	return &Binding{
		trigger:     OptionalContribution{Kind: kind},
		ctor:        ctor,
		valueType:   typeOf[T](),
		annotations: annotations,
	}
}
