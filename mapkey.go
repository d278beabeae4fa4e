package multibind

import (
	"reflect"
	"sync"
)

// resolvedMapKey is the effective key derived from a map-key annotation: the
// annotation instance itself, the key's type and the key's value.
type resolvedMapKey struct {
	annotation any
	keyType    reflect.Type
	value      reflect.Value
}

// Accessor lookup is pure reflection over the annotation type, so the result
// is cached per type.
var mapKeyAccessors sync.Map // map[reflect.Type]accessorResult

type accessorResult struct {
	method reflect.Method
	ok     bool
}

// resolveMapKey scans a binding's annotations for map-key annotations and
// derives the effective key. Zero matches and multiple matches are both
// reported as "no key": either way the caller skips aggregate registration
// and the host framework applies its own validation later.
func resolveMapKey(annotations []any) (resolvedMapKey, bool) {
	var candidate any
	var marker MapKeyed
	count := 0
	for _, a := range annotations {
		if m, ok := a.(MapKeyed); ok {
			candidate = a
			marker = m
			count++
		}
	}
	if count != 1 {
		return resolvedMapKey{}, false
	}

	annotationType := reflect.TypeOf(candidate)
	if !marker.MapKey().Unwrap {
		return resolvedMapKey{
			annotation: candidate,
			keyType:    annotationType,
			value:      reflect.ValueOf(candidate),
		}, true
	}

	accessor, ok := mapKeyAccessor(annotationType)
	if !ok {
		return resolvedMapKey{}, false
	}
	keyType := accessor.Type.Out(0)
	switch keyType.Kind() {
	case reflect.Array, reflect.Slice:
		// Sequence-typed unwrapped keys are not supported.
		return resolvedMapKey{}, false
	}
	value := accessor.Func.Call([]reflect.Value{reflect.ValueOf(candidate)})[0]
	return resolvedMapKey{
		annotation: candidate,
		keyType:    keyType,
		value:      value,
	}, true
}

// mapKeyAccessor locates the single no-argument, single-result method on an
// annotation type, excluding the MapKey marker itself. Anything other than
// exactly one such method means the key cannot be unwrapped.
func mapKeyAccessor(t reflect.Type) (reflect.Method, bool) {
	if cached, ok := mapKeyAccessors.Load(t); ok {
		result := cached.(accessorResult)
		return result.method, result.ok
	}

	var found reflect.Method
	count := 0
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.Name == "MapKey" {
			continue
		}
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		found = m
		count++
	}

	result := accessorResult{method: found, ok: count == 1}
	actual, _ := mapKeyAccessors.LoadOrStore(t, result)
	cached := actual.(accessorResult)
	return cached.method, cached.ok
}
