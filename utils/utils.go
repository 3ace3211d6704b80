package utils

// MapToKeys returns the keys of m in map iteration order.
func MapToKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
