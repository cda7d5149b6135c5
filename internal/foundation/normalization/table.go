// Package normalization maps free-form spellings from configuration files
// and front matter onto closed sets of values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Table resolves spellings to values. Keys match case-insensitively after
// trimming.
type Table[T comparable] struct {
	name     string
	values   map[string]T
	fallback T
}

// NewTable builds a table. name appears in Parse errors; fallback is what
// Normalize returns for unknown spellings.
func NewTable[T comparable](name string, values map[string]T, fallback T) *Table[T] {
	t := &Table[T]{name: name, values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		t.values[key(k)] = v
	}
	return t
}

func key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Lookup returns the value for raw and whether raw is known.
func (t *Table[T]) Lookup(raw string) (T, bool) {
	v, ok := t.values[key(raw)]
	return v, ok
}

// Normalize returns the value for raw, or the fallback.
func (t *Table[T]) Normalize(raw string) T {
	if v, ok := t.Lookup(raw); ok {
		return v
	}
	return t.fallback
}

// Parse is Lookup with an error naming the accepted spellings.
func (t *Table[T]) Parse(raw string) (T, error) {
	if v, ok := t.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (want one of %s)", t.name, raw, strings.Join(t.Keys(), ", "))
}

// Keys returns the accepted spellings, sorted.
func (t *Table[T]) Keys() []string {
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
