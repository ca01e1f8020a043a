package util

// StringValue returns the dereferenced string or empty string when the pointer is nil.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
