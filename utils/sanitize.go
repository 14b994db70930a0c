package utils

import "strings"

// UnsafeKey reports whether a document key could be read as a query
// operator or a nested path by the database.
func UnsafeKey(k string) bool {
	return strings.HasPrefix(k, "$") || strings.Contains(k, ".")
}

// Sanitize walks a decoded JSON value and drops every object key for which
// UnsafeKey is true. Maps are modified in place; the (possibly same) value is
// returned along with the number of keys removed.
func Sanitize(v interface{}) (interface{}, int) {
	switch t := v.(type) {
	case map[string]interface{}:
		removed := 0
		for k, child := range t {
			if UnsafeKey(k) {
				delete(t, k)
				removed++
				continue
			}
			var n int
			t[k], n = Sanitize(child)
			removed += n
		}
		return t, removed
	case []interface{}:
		removed := 0
		for i, child := range t {
			var n int
			t[i], n = Sanitize(child)
			removed += n
		}
		return t, removed
	default:
		return v, 0
	}
}
