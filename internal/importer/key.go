package importer

import (
	"strconv"
	"strings"

	"runnerdb/internal/textutil"
)

const unknownBirthYear = "unknown"

// NaturalKey derives the runner id for an imported row:
// "last_first_year" lower-cased with every rune that is not a letter or digit
// (in any script) replaced by "_".
// A missing birth year is spelled "unknown".
func NaturalKey(lastName, firstName string, birthYear *int) string {
	year := unknownBirthYear
	if birthYear != nil {
		year = strconv.Itoa(*birthYear)
	}
	return textutil.KeyToken(strings.TrimSpace(lastName) + "_" + strings.TrimSpace(firstName) + "_" + year)
}
