package multibind

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPass_BinderHandlesAreReused(t *testing.T) {
	pass := NewPass()
	widgetType := typeOf[*testWidget]()
	stringType := typeOf[string]()

	assert.Same(t, pass.setBinder(widgetType), pass.setBinder(widgetType))
	assert.Same(t, pass.mapBinder(stringType, widgetType), pass.mapBinder(stringType, widgetType))
	assert.Same(t, pass.optionalBinder(widgetType), pass.optionalBinder(widgetType))
}

func TestMapBinder_EntryTypeIsStable(t *testing.T) {
	pass := NewPass()
	binder := pass.mapBinder(typeOf[string](), typeOf[*testWidget]())

	// reflect.StructOf returns the identical type for identical layouts, so
	// entries produced by separate wrapped constructors join the same group.
	expected := reflect.StructOf([]reflect.StructField{
		{Name: "Key", Type: typeOf[string]()},
		{Name: "Value", Type: typeOf[*testWidget]()},
	})
	assert.Equal(t, expected, binder.entryType)
}

func TestMapBinder_WrapConstructor(t *testing.T) {
	pass := NewPass()
	binder := pass.mapBinder(typeOf[string](), typeOf[*testWidget]())
	resolved, ok := resolveMapKey([]any{routeKey{route: "x"}})
	assert.True(t, ok)

	wrapped := binder.wrapConstructor(func() *testWidget { return &testWidget{val: 9} }, resolved)

	results := reflect.ValueOf(wrapped).Call(nil)
	assert.Len(t, results, 1)
	entry := results[0]
	assert.Equal(t, "x", entry.Field(0).Interface())
	assert.Equal(t, 9, entry.Field(1).Interface().(*testWidget).val)
}

func TestMapBinder_WrapConstructorKeepsError(t *testing.T) {
	pass := NewPass()
	binder := pass.mapBinder(typeOf[string](), typeOf[*testWidget]())
	resolved, ok := resolveMapKey([]any{routeKey{route: "x"}})
	assert.True(t, ok)

	wrapped := binder.wrapConstructor(func() (*testWidget, error) { return &testWidget{val: 9}, nil }, resolved)

	wrappedType := reflect.TypeOf(wrapped)
	assert.Equal(t, 2, wrappedType.NumOut())
	assert.Equal(t, errorType, wrappedType.Out(1))

	results := reflect.ValueOf(wrapped).Call(nil)
	assert.True(t, results[1].IsNil())
}

func TestMapBinder_WrapConstructorRejectsMismatch(t *testing.T) {
	pass := NewPass()
	binder := pass.mapBinder(typeOf[string](), typeOf[*testWidget]())
	resolved, ok := resolveMapKey([]any{routeKey{route: "x"}})
	assert.True(t, ok)

	assert.Panics(t, func() {
		binder.wrapConstructor(func() string { return "not a widget" }, resolved)
	})
	assert.Panics(t, func() {
		binder.wrapConstructor("not a function", resolved)
	})
}

func TestOptionalBinder_KeysAreDistinctAndSticky(t *testing.T) {
	pass := NewPass()
	binder := pass.optionalBinder(typeOf[*testWidget]())

	defKey := binder.defaultKey()
	actKey := binder.actualKey()

	assert.NotEqual(t, defKey.Name, actKey.Name)
	assert.True(t, binder.hasDefault)
	assert.True(t, binder.hasActual)

	// Reissuing a key is stable.
	assert.Equal(t, defKey, binder.defaultKey())
}
