// Package bxval normalizes the value shapes returned by the Bitrix24 REST
// API. List element properties arrive as plain strings, {"VALUE": ...}
// envelopes, maps keyed by internal value id, or arrays of any of those,
// depending on the list configuration and API version. Everything here is
// pure: no I/O, no errors — input that carries no usable value degrades to
// the empty string.
package bxval

import (
	"fmt"
	"sort"
	"strings"
)

// Flatten unwraps an arbitrarily nested Bitrix property value into a single
// trimmed scalar string. Unwrap priority:
//
//   - slice: first element that flattens to a non-empty string
//   - map with a non-empty "TEXT"/"text" entry: that string
//   - map with a non-empty "VALUE"/"value" entry: flattened recursively
//   - any other map: the first entry's value, flattened (covers the
//     {"1616": "31.08.2025"} shape keyed by internal value id)
//   - scalar: its string form, trimmed
//
// Returns "" when no value can be extracted.
func Flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []any:
		for _, item := range x {
			if s := Flatten(item); s != "" {
				return s
			}
		}
		return ""
	case []string:
		for _, item := range x {
			if s := strings.TrimSpace(item); s != "" {
				return s
			}
		}
		return ""
	case map[string]any:
		return flattenMap(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func flattenMap(m map[string]any) string {
	for _, key := range []string{"TEXT", "text"} {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, key := range []string{"VALUE", "value"} {
		if inner, ok := m[key]; ok {
			if s := Flatten(inner); s != "" {
				return s
			}
		}
	}

	// Assoc maps keyed by internal value id are effectively single-entry;
	// sorted iteration keeps multi-entry input deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "TEXT", "text", "VALUE", "value":
			continue
		}
		if s := Flatten(m[k]); s != "" {
			return s
		}
	}
	return ""
}
