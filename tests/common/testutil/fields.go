//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequestMap turns a request DTO into its JSON object form and applies the
// mutations, for building malformed or partial payloads.
func RequestMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, f := range muts {
		f(m)
	}
	return m
}

// Field sets key on the top-level object; a nil value removes it.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
}

// FieldAt is Field for nested objects, addressed as "cart.id".
// Numeric segments index into arrays: "cart.items.0.quantity".
func FieldAt(path string, value any) func(m map[string]any) {
	parts := strings.Split(path, ".")
	return func(m map[string]any) {
		var cur any = m
		for _, p := range parts[:len(parts)-1] {
			cur = descend(cur, p)
			if cur == nil {
				return
			}
		}
		last := parts[len(parts)-1]
		switch node := cur.(type) {
		case map[string]any:
			Field(last, value)(node)
		case []any:
			if i, ok := index(last, len(node)); ok {
				node[i] = value
			}
		}
	}
}

func descend(node any, key string) any {
	switch n := node.(type) {
	case map[string]any:
		return n[key]
	case []any:
		if i, ok := index(key, len(n)); ok {
			return n[i]
		}
	}
	return nil
}

func index(s string, n int) (int, bool) {
	i := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		i = i*10 + int(r-'0')
	}
	return i, s != "" && i < n
}
