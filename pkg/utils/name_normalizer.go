package utils

import "strings"

// NormalizeProcedureName canonicalizes a scraped procedure name so that spelling
// variants of the same marketing term collapse to a single join key. It lowercases
// the input and strips every rune that is not a word character or a Hangul
// syllable. Two raw names refer to the same procedure iff their normalized forms
// are byte-equal.
//
// The function is pure and total: it never fails, and it is idempotent.
func NormalizeProcedureName(raw string) string {
	lowered := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		case r >= 0xAC00 && r <= 0xD7A3: // Hangul syllable block
			b.WriteRune(r)
		}
	}
	return b.String()
}
