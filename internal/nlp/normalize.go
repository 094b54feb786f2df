// Package nlp provides the Spanish text normalization, ordered intent patterns
// and input parsers used by the conversation flows.
package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Normalize lowercases text, strips diacritics and punctuation and trims it.
// "¿Cuánto cuesta un Poder?" becomes "cuanto cuesta un poder".
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}
	return strings.TrimSpace(punctuationRegex.ReplaceAllString(stripped, ""))
}

var digitsRegex = regexp.MustCompile(`^\d+$`)

// IsNumeric reports whether the trimmed text is made only of ASCII digits.
func IsNumeric(text string) bool {
	return digitsRegex.MatchString(strings.TrimSpace(text))
}
