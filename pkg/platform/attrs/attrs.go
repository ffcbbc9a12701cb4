// Package attrs provides helpers for reading values out of slog-style
// alternating key/value attribute lists.
package attrs

// ExtractString returns the string value following the given key in an
// alternating key/value list, or "" when the key is absent or the value
// is not a string.
func ExtractString(attrList []any, key string) string {
	for i := 0; i+1 < len(attrList); i += 2 {
		k, ok := attrList[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attrList[i+1].(string); ok {
			return v
		}
		return ""
	}
	return ""
}
