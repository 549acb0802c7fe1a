package textutil

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Distance returns the Levenshtein edit distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns 1 - distance/maxLen in [0,1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}
