package foundation

import (
	"strings"
	"testing"
)

type target string

func TestNormalizer(t *testing.T) {
	normalizer := NewNormalizer(map[string]target{
		"package": "package",
		"module":  "package",
		"print":   "print",
	}, "package")

	t.Run("Valid values and aliases", func(t *testing.T) {
		if normalizer.Normalize("Print") != "print" {
			t.Error("Expected 'Print' to normalize to 'print'")
		}
		if normalizer.Normalize(" module ") != "package" {
			t.Error("Expected alias 'module' to normalize to 'package'")
		}
	})

	t.Run("Invalid value falls back", func(t *testing.T) {
		if normalizer.Normalize("epub") != "package" {
			t.Error("Expected 'epub' to return default 'package'")
		}
	})

	t.Run("With error", func(t *testing.T) {
		v, err := normalizer.NormalizeWithError("")
		if err != nil || v != "package" {
			t.Errorf("empty input should yield the default, got %q, %v", v, err)
		}
		_, err = normalizer.NormalizeWithError("epub")
		if err == nil {
			t.Fatal("Expected error for invalid value")
		}
		if !strings.Contains(err.Error(), "module, package, print") {
			t.Errorf("error should list accepted spellings: %v", err)
		}
	})
}
