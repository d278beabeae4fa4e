package multibind

// Set returns the assembled set of T from the container. The slice is the
// collected group dig built from the set contributions; its order is
// unspecified.
func Set[T any](c Container) ([]T, error) {
	var out []T
	if err := c.Invoke(func(values []T) { out = values }); err != nil {
		return nil, err
	}
	return out, nil
}

// Map returns the assembled map from K to T from the container. Resolving
// fails if any two contributions derived the same key.
func Map[K comparable, T any](c Container) (map[K]T, error) {
	var out map[K]T
	if err := c.Invoke(func(values map[K]T) { out = values }); err != nil {
		return nil, err
	}
	return out, nil
}

// Optional returns the optional binding's effective value for T: the actual
// value when one was contributed, otherwise the default.
func Optional[T any](c Container) (T, error) {
	var out T
	if err := c.Invoke(func(value T) { out = value }); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
