package multibind

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	digInType = reflect.TypeOf(dig.In{})
)

// Pass holds the aggregate binder handles for one module configuration
// pass. Binders are created lazily, shared across scanner invocations for a
// given value type, and discarded when the pass ends. The host framework
// serializes configuration passes, so a Pass does no locking.
type Pass struct {
	setBinders      map[reflect.Type]*setBinder
	mapBinders      map[mapBinderKey]*mapBinder
	optionalBinders map[reflect.Type]*optionalBinder
}

type mapBinderKey struct {
	key   reflect.Type
	value reflect.Type
}

// NewPass creates the binder state for a single configuration pass.
func NewPass() *Pass {
	return &Pass{
		setBinders:      map[reflect.Type]*setBinder{},
		mapBinders:      map[mapBinderKey]*mapBinder{},
		optionalBinders: map[reflect.Type]*optionalBinder{},
	}
}

func (p *Pass) setBinder(value reflect.Type) *setBinder {
	if b, ok := p.setBinders[value]; ok {
		return b
	}
	b := &setBinder{
		value: value,
		group: "multibind.set." + value.String(),
	}
	p.setBinders[value] = b
	return b
}

func (p *Pass) mapBinder(key, value reflect.Type) *mapBinder {
	k := mapBinderKey{key: key, value: value}
	if b, ok := p.mapBinders[k]; ok {
		return b
	}
	b := &mapBinder{
		keyType:   key,
		valueType: value,
		group:     "multibind.map." + key.String() + "." + value.String(),
		entryType: reflect.StructOf([]reflect.StructField{
			{Name: "Key", Type: key},
			{Name: "Value", Type: value},
		}),
		entries: map[*Binding]resolvedMapKey{},
	}
	p.mapBinders[k] = b
	return b
}

func (p *Pass) optionalBinder(value reflect.Type) *optionalBinder {
	if b, ok := p.optionalBinders[value]; ok {
		return b
	}
	b := &optionalBinder{value: value}
	p.optionalBinders[value] = b
	return b
}

// entryFor finds the map binder and resolved key recorded for a binding
// whose key the scanner rewrote to a map entry.
func (p *Pass) entryFor(binding *Binding) (*mapBinder, resolvedMapKey, bool) {
	for _, b := range p.mapBinders {
		if resolved, ok := b.entries[binding]; ok {
			return b, resolved, true
		}
	}
	return nil, resolvedMapKey{}, false
}

// flush registers the aggregate collectors with the host framework. It runs
// once at the end of a configuration pass, after every binding has been
// scanned and registered, so the optional binders know which side was
// contributed.
func (p *Pass) flush(c Container) error {
	for _, b := range p.setBinders {
		if err := b.flush(c); err != nil {
			return &BindingError{Message: "registering set collector", ReferencedType: b.value, SourceError: err}
		}
	}
	for _, b := range p.mapBinders {
		if err := b.flush(c); err != nil {
			return &BindingError{Message: "registering map collector", ReferencedType: b.valueType, SourceError: err}
		}
	}
	for _, b := range p.optionalBinders {
		if err := b.flush(c); err != nil {
			return &BindingError{Message: "registering optional collector", ReferencedType: b.value, SourceError: err}
		}
	}
	return nil
}

// setBinder accumulates set contributions for one value type. Every element
// shares the set's group qualifier; dig collects the group into []T.
type setBinder struct {
	value    reflect.Type
	group    string
	elements int
}

// elementKey issues the key for the next contributed element.
func (b *setBinder) elementKey() Key {
	b.elements++
	return Key{Type: b.value, Group: b.group}
}

// flush registers the collector exposing the accumulated group as []T.
func (b *setBinder) flush(c Container) error {
	in := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: digInType, Anonymous: true},
		{Name: "Elements", Type: reflect.SliceOf(b.value), Tag: reflect.StructTag(`group:"` + b.group + `"`)},
	})
	collector := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{in}, []reflect.Type{reflect.SliceOf(b.value)}, false),
		func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{args[0].Field(1)}
		},
	)
	return c.Provide(collector.Interface())
}

// mapBinder accumulates map contributions for one (key type, value type)
// pair. Entry providers wrap the user's constructor so the value travels
// through dig as a key/value entry in the binder's group; the collector
// folds the group into map[K]V.
type mapBinder struct {
	keyType   reflect.Type
	valueType reflect.Type
	group     string
	entryType reflect.Type
	entries   map[*Binding]resolvedMapKey
}

// entryKey issues the key for the next map entry and records the binding's
// resolved key value so registration can wrap the constructor.
func (b *mapBinder) entryKey(binding *Binding, resolved resolvedMapKey) Key {
	b.entries[binding] = resolved
	return Key{Type: b.valueType, Group: b.group}
}

// wrapConstructor rewrites ctor so its value result is emitted as a
// key/value entry in the binder's group. The constructor must return a value
// assignable to the contributed type, optionally alongside an error.
func (b *mapBinder) wrapConstructor(ctor any, resolved resolvedMapKey) any {
	ctorValue := reflect.ValueOf(ctor)
	ctorType := ctorValue.Type()
	if ctorType.Kind() != reflect.Func {
		panic(fmt.Sprintf("map contribution constructor must be a function, got %v", ctorType))
	}

	valueIndex := -1
	errIndex := -1
	for i := 0; i < ctorType.NumOut(); i++ {
		out := ctorType.Out(i)
		switch {
		case out.AssignableTo(errorType):
			if errIndex >= 0 {
				panic("multiple error results on a map contribution constructor not permitted")
			}
			errIndex = i
		case out.AssignableTo(b.valueType) && valueIndex < 0:
			valueIndex = i
		default:
			panic(fmt.Sprintf("map contribution constructor result %v is not assignable to %v", out, b.valueType))
		}
	}
	if valueIndex < 0 {
		panic(fmt.Sprintf("map contribution constructor %v has no result assignable to %v", ctorType, b.valueType))
	}

	ins := make([]reflect.Type, ctorType.NumIn())
	for i := range ins {
		ins[i] = ctorType.In(i)
	}
	outs := []reflect.Type{b.entryType}
	if errIndex >= 0 {
		outs = append(outs, errorType)
	}

	entryType := b.entryType
	wrapped := reflect.MakeFunc(
		reflect.FuncOf(ins, outs, ctorType.IsVariadic()),
		func(args []reflect.Value) []reflect.Value {
			var results []reflect.Value
			if ctorType.IsVariadic() {
				results = ctorValue.CallSlice(args)
			} else {
				results = ctorValue.Call(args)
			}

			entry := reflect.New(entryType).Elem()
			entry.Field(0).Set(resolved.value)
			entry.Field(1).Set(results[valueIndex])
			if errIndex < 0 {
				return []reflect.Value{entry}
			}

			errValue := reflect.New(errorType).Elem()
			errValue.Set(results[errIndex])
			return []reflect.Value{entry, errValue}
		},
	)
	return wrapped.Interface()
}

// flush registers the collector folding the accumulated entries into
// map[K]V. Duplicate keys surface as a BindingError when dig assembles the
// map.
func (b *mapBinder) flush(c Container) error {
	in := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: digInType, Anonymous: true},
		{Name: "Entries", Type: reflect.SliceOf(b.entryType), Tag: reflect.StructTag(`group:"` + b.group + `"`)},
	})
	mapType := reflect.MapOf(b.keyType, b.valueType)
	valueType := b.valueType
	collector := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{in}, []reflect.Type{mapType, errorType}, false),
		func(args []reflect.Value) []reflect.Value {
			entries := args[0].Field(1)
			result := reflect.MakeMapWithSize(mapType, entries.Len())
			for i := 0; i < entries.Len(); i++ {
				entry := entries.Index(i)
				key := entry.Field(0)
				if result.MapIndex(key).IsValid() {
					errValue := reflect.New(errorType).Elem()
					errValue.Set(reflect.ValueOf(&BindingError{
						Message:        fmt.Sprintf("duplicate map key %v", key.Interface()),
						ReferencedType: valueType,
					}))
					return []reflect.Value{reflect.Zero(mapType), errValue}
				}
				result.SetMapIndex(key, entry.Field(1))
			}
			return []reflect.Value{result, reflect.Zero(errorType)}
		},
	)
	return c.Provide(collector.Interface())
}

// optionalBinder accumulates the default and actual contributions for one
// optional value type. Each side is a distinct named binding; the collector
// exposes the actual value when one was contributed in this pass, falling
// back to the default.
type optionalBinder struct {
	value      reflect.Type
	hasDefault bool
	hasActual  bool
}

func (b *optionalBinder) defaultKey() Key {
	b.hasDefault = true
	return Key{Type: b.value, Name: "multibind.optional.default." + b.value.String()}
}

func (b *optionalBinder) actualKey() Key {
	b.hasActual = true
	return Key{Type: b.value, Name: "multibind.optional.actual." + b.value.String()}
}

// flush registers the collector exposing the optional binding's effective
// value as a plain T.
func (b *optionalBinder) flush(c Container) error {
	name := "multibind.optional.default." + b.value.String()
	if b.hasActual {
		name = "multibind.optional.actual." + b.value.String()
	}
	in := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: digInType, Anonymous: true},
		{Name: "Value", Type: b.value, Tag: reflect.StructTag(`name:"` + name + `"`)},
	})
	collector := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{in}, []reflect.Type{b.value}, false),
		func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{args[0].Field(1)}
		},
	)
	return c.Provide(collector.Interface())
}
