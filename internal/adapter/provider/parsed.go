package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asSlice treats a single value as a one-element sequence. Markup readers
// only produce sequences for repeated tags.
func asSlice(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		if text, ok := val["#text"]; ok {
			return asString(text)
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// field looks up the first present key, ignoring case.
func field(m map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	for _, key := range keys {
		for k, v := range m {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
	}
	return nil, false
}

func fieldString(m map[string]any, keys ...string) string {
	v, _ := field(m, keys...)
	return asString(v)
}

// fieldStrings flattens a scalar or sequence of scalars into non-empty strings.
func fieldStrings(m map[string]any, keys ...string) []string {
	v, ok := field(m, keys...)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range asSlice(v) {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}
