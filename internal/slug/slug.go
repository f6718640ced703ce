// Package slug derives URL-safe tokens from display names, keeps them unique
// within one build, and maps them to stable name-based identifiers.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Punctuation is removed from names without introducing a separator.
const Punctuation = "!\"#$%&'()*+,./:;<=>?@[\\]^`{|}~"

// Untitled is returned when a name sanitizes to nothing.
const Untitled = "untitled"

// Sanitize turns a display name into a lowercase token made of letters, digits
// and single '-' separators. Accents are folded to their base letter.
func Sanitize(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case strings.ContainsRune(Punctuation, r):
			continue
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Untitled
	}
	return b.String()
}
