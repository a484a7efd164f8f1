package weather

import "strings"

// NormalizeCityKey folds a raw city query into a stable cache key: lower-case,
// surrounding whitespace trimmed, internal whitespace runs collapsed to a
// single underscore. Total over any input; an empty result means the query
// carried no usable city name.
func NormalizeCityKey(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}
