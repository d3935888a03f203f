package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeWord maps a word to its canonical lookup form: lowercased with
// combining diacritical marks stripped after NFD normalization. Lexicon
// entries and document tokens go through the same mapping so they can only
// match in this form.
func NormalizeWord(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range norm.NFD.String(word) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
