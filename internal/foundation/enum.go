package foundation

import (
	"fmt"
	"sort"
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps user-facing spellings (including aliases) onto enum values.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
}

// NewNormalizer creates a normalizer from spelling->value pairs. Empty input
// normalizes to defaultValue.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
	}
}

// Normalize converts raw to the enum type, falling back to the default value.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, exists := n.validValues[normalizeKey(raw)]; exists {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError converts raw to the enum type. Empty input yields the
// default value; unknown input is an error listing the accepted spellings.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	key := normalizeKey(raw)
	if key == "" {
		return n.defaultValue, nil
	}
	if value, exists := n.validValues[key]; exists {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q (accepted: %s)", raw, strings.Join(n.Spellings(), ", "))
}

// Spellings returns the accepted spellings in sorted order.
func (n *Normalizer[T]) Spellings() []string {
	out := make([]string, 0, len(n.validValues))
	for k := range n.validValues {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
