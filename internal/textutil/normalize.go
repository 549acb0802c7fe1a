package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName case-folds text, removes diacritics and punctuation, and
// collapses runs of whitespace to a single space.
func NormalizeName(value string) string {
	folded := stripMarks(value)
	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// FullName returns the normalized "first last" comparison string for a runner.
func FullName(first, last string) string {
	return NormalizeName(first + " " + last)
}

// Initial returns the first rune of the normalized value, or "" when empty.
func Initial(value string) string {
	normalized := NormalizeName(value)
	for _, r := range normalized {
		return string(r)
	}
	return ""
}

func stripMarks(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// DisplayName title-cases a normalized name for operator output, for example
// "jose muller" becomes "Jose Muller".
func DisplayName(normalized string) string {
	return cases.Title(language.Und).String(normalized)
}
