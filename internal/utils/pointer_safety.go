package utils

// Value dereferences a pointer, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to the given value. Handy for optional fields such as
// tenant references.
func Ptr[T any](v T) *T {
	return &v
}
