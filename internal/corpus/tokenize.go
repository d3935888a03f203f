package corpus

import (
	"strings"
	"unicode"

	"github.com/crimson-sun/barometer/internal/model"
)

// Tokenize converts raw text into the normalized token stream the scorer
// matches lexicon entries against: cleaned, split on whitespace and
// punctuation, then normalized per token (lowercase, accents stripped).
// Punctuation itself is dropped, except apostrophes inside a word, so
// "isn't" stays one token.
func Tokenize(text string) []string {
	text = cleanText(text)

	var tokens []string
	for _, word := range strings.Fields(text) {
		for _, tok := range splitWord(word) {
			tokens = append(tokens, model.NormalizeWord(tok))
		}
	}
	return tokens
}

// cleanText removes control characters and replaces whitespace with spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitWord splits a whitespace-delimited word at punctuation, discarding
// the punctuation runes.
func splitWord(word string) []string {
	var tokens []string
	var current strings.Builder
	runes := []rune(word)
	for i, r := range runes {
		if isPunctuation(r) && !isInnerApostrophe(runes, i) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isInnerApostrophe(runes []rune, i int) bool {
	if runes[i] != '\'' && runes[i] != '’' {
		return false
	}
	return i > 0 && i < len(runes)-1 &&
		unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1])
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
