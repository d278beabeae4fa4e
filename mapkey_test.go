package multibind

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sliceKey unwraps to a slice-typed accessor, which is unsupported.
type sliceKey struct{}

func (sliceKey) MapKey() MapKeyOptions { return MapKeyOptions{Unwrap: true} }

func (sliceKey) Values() []string { return []string{"a"} }

// bareKey is unwrap-mode but has no accessor at all.
type bareKey struct{}

func (bareKey) MapKey() MapKeyOptions { return MapKeyOptions{Unwrap: true} }

// twoAccessorKey has two accessor-shaped methods, so the accessor lookup is
// ambiguous.
type twoAccessorKey struct{}

func (twoAccessorKey) MapKey() MapKeyOptions { return MapKeyOptions{Unwrap: true} }

func (twoAccessorKey) First() string { return "a" }

func (twoAccessorKey) Second() string { return "b" }

func TestResolveMapKey_NoAnnotations(t *testing.T) {
	_, ok := resolveMapKey(nil)
	assert.False(t, ok)

	_, ok = resolveMapKey([]any{"not a key", 42})
	assert.False(t, ok)
}

func TestResolveMapKey_MultipleCandidates(t *testing.T) {
	_, ok := resolveMapKey([]any{routeKey{route: "a"}, colorKey{Color: "red"}})
	assert.False(t, ok)

	_, ok = resolveMapKey([]any{routeKey{route: "a"}, routeKey{route: "b"}})
	assert.False(t, ok)
}

func TestResolveMapKey_Unwrap(t *testing.T) {
	annotation := routeKey{route: "users"}
	resolved, ok := resolveMapKey([]any{annotation})

	assert.True(t, ok)
	assert.Equal(t, annotation, resolved.annotation)
	assert.Equal(t, reflect.TypeOf(""), resolved.keyType)
	assert.Equal(t, "users", resolved.value.Interface())
}

func TestResolveMapKey_UnwrapIgnoresOtherAnnotations(t *testing.T) {
	resolved, ok := resolveMapKey([]any{"junk", 42, routeKey{route: "users"}})

	assert.True(t, ok)
	assert.Equal(t, "users", resolved.value.Interface())
}

func TestResolveMapKey_WholeAnnotation(t *testing.T) {
	annotation := colorKey{Color: "red"}
	resolved, ok := resolveMapKey([]any{annotation})

	assert.True(t, ok)
	assert.Equal(t, annotation, resolved.annotation)
	assert.Equal(t, reflect.TypeOf(colorKey{}), resolved.keyType)
	assert.Equal(t, annotation, resolved.value.Interface())
}

func TestResolveMapKey_SliceAccessor(t *testing.T) {
	_, ok := resolveMapKey([]any{sliceKey{}})
	assert.False(t, ok)
}

func TestResolveMapKey_MissingAccessor(t *testing.T) {
	_, ok := resolveMapKey([]any{bareKey{}})
	assert.False(t, ok)
}

func TestResolveMapKey_AmbiguousAccessor(t *testing.T) {
	_, ok := resolveMapKey([]any{twoAccessorKey{}})
	assert.False(t, ok)
}

func TestMapKeyAccessor_Cached(t *testing.T) {
	keyType := reflect.TypeOf(routeKey{})

	first, ok := mapKeyAccessor(keyType)
	assert.True(t, ok)
	second, ok := mapKeyAccessor(keyType)
	assert.True(t, ok)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, "Route", first.Name)
}
