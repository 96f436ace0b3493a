package main

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// applySet updates doc in place from an expression of the form
// "a.b.c=value". The value is parsed as YAML, so "true", "3" and "[1, 2]"
// keep their types. Missing intermediate maps are created.
func applySet(doc map[string]any, expr string) error {
	path, raw, ok := strings.Cut(expr, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return fmt.Errorf("setting %q is not of the form PATH=value: %w", expr, store.ErrInvalidConfig)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Errorf("setting %q: %v: %w", expr, err, store.ErrInvalidConfig)
	}

	keys := strings.Split(path, ".")
	cur := doc
	for _, k := range keys[:len(keys)-1] {
		if k == "" {
			return fmt.Errorf("setting %q has an empty path segment: %w", expr, store.ErrInvalidConfig)
		}
		next, ok := cur[k].(map[string]any)
		if !ok {
			if _, exists := cur[k]; exists {
				return fmt.Errorf("setting %q: %s is not a mapping: %w", expr, k, store.ErrInvalidConfig)
			}
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	last := keys[len(keys)-1]
	if last == "" {
		return fmt.Errorf("setting %q has an empty path segment: %w", expr, store.ErrInvalidConfig)
	}
	cur[last] = value
	return nil
}
