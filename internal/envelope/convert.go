package envelope

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one backend object decoded without a schema.
type Record = map[string]any

// AsString returns text for strings and numbers, "" otherwise.
func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// AsInt coerces numbers and numeric strings. Anything else is 0.
func AsInt(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(n)
		}
	}
	return 0
}

// AsList normalizes collection types into []any. Anything else is nil.
func AsList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []Record:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, r)
		}
		return out
	default:
		return nil
	}
}

// AsRecord returns value as a Record, or nil.
func AsRecord(value any) Record {
	r, _ := value.(Record)
	return r
}

// Records keeps the object items of a list.
func Records(items []any) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if r := AsRecord(item); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Path walks nested objects: Path(r, "attendance_type", "name").
func Path(r Record, keys ...string) any {
	var cur any = r
	for _, key := range keys {
		m := AsRecord(cur)
		if m == nil {
			return nil
		}
		cur = m[key]
	}
	return cur
}
