// Package textnorm cleans free text before it is embedded.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize replaces every character that is not a letter, digit or
// whitespace with a space, collapses whitespace runs to one space and trims
// the ends. Case is preserved. Normalize(Normalize(s)) == Normalize(s).
func Normalize(input string) string {
	if input == "" {
		return ""
	}

	var out strings.Builder
	out.Grow(len(input))
	pendingSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && out.Len() > 0 {
				out.WriteByte(' ')
			}
			pendingSpace = false
			out.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return out.String()
}
