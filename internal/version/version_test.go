package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "modbuilder ") {
		t.Errorf("String() = %q, want modbuilder prefix", s)
	}
	if !strings.Contains(s, Version) {
		t.Errorf("String() = %q does not contain version %q", s, Version)
	}
}
