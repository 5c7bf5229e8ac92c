package manifest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Manifests are produced by exporters that are loose about types. The helpers
// below coerce decoded JSON values the way a dynamically typed reader would.

// String returns v as a string. Numbers and booleans are formatted; nil,
// maps and lists yield "".
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

// First returns the value of the first key present in m.
func First(m map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// FirstString returns the first key whose value coerces to a non-blank
// string.
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := String(m[key]); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Int64 parses v as an integer. Non-numeric values yield (0, false).
func Int64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}

// Int returns v as an int, zero when not numeric.
func Int(v any) int {
	n, _ := Int64(v)
	return int(n)
}

// Map returns v as an object, nil otherwise.
func Map(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// List returns v as an array, nil otherwise.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Strings returns the string elements of a list, or a single string as a
// one element list.
func Strings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := String(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

// IDs returns the integers of a list or a comma separated string.
func IDs(v any) []int64 {
	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case string:
		for _, part := range strings.Split(t, ",") {
			raw = append(raw, part)
		}
	default:
		if n, ok := Int64(v); ok {
			raw = []any{n}
		}
	}
	out := make([]int64, 0, len(raw))
	for _, item := range raw {
		if n, ok := Int64(item); ok && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
