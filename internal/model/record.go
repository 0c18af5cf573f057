package model

import (
	"strconv"
	"strings"
)

// Record is a loosely typed flat record as delivered by the remote API.
// Values are JSON scalars (string, float64, bool, nil) or slices of them.
type Record map[string]any

// String returns the trimmed string form of a scalar field, or "" when absent.
func (r Record) String(key string) string {
	return ScalarString(r[key])
}

// First returns the first non-blank value among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := r.String(k); v != "" {
			return v
		}
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ScalarString converts a JSON scalar into a trimmed string.
// Slices and maps yield "".
func ScalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
