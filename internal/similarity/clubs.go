package similarity

import (
	"sort"
	"unicode/utf8"

	"runnerdb/internal/logging"
	"runnerdb/internal/runnerdb"
	"runnerdb/internal/textutil"
)

// ClubMisspelling is a pair of canonical club names within a small edit
// distance of each other. Suggested is the club to keep: the one with more
// runners, or the lower id on a tie.
type ClubMisspelling struct {
	Club1     runnerdb.Club `json:"club_1"`
	Club2     runnerdb.Club `json:"club_2"`
	Distance  int           `json:"distance"`
	Suggested runnerdb.Club `json:"suggested"`
}

// Other returns the club that would be merged into Suggested.
func (m ClubMisspelling) Other() runnerdb.Club {
	if m.Suggested.ID == m.Club1.ID {
		return m.Club2
	}
	return m.Club1
}

// FindClubMisspellings compares every pair of club names by raw edit distance.
// When either name is at most the short-name length only distance 1 counts;
// otherwise distances 1 and 2 are reported.
func (e *Engine) FindClubMisspellings(clubs []*runnerdb.Club) []ClubMisspelling {
	var out []ClubMisspelling
	for i := 0; i < len(clubs); i++ {
		for j := i + 1; j < len(clubs); j++ {
			a, b := clubs[i], clubs[j]
			if a == nil || b == nil || a.ID == b.ID {
				continue
			}
			dist := textutil.Distance(a.Name, b.Name)
			if !e.misspellingDistance(a.Name, b.Name, dist) {
				continue
			}
			first, second := *a, *b
			if second.ID < first.ID {
				first, second = second, first
			}
			out = append(out, ClubMisspelling{
				Club1:     first,
				Club2:     second,
				Distance:  dist,
				Suggested: suggest(first, second),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Club1.Name != out[j].Club1.Name {
			return out[i].Club1.Name < out[j].Club1.Name
		}
		return out[i].Club2.Name < out[j].Club2.Name
	})
	e.logger.Debug("club misspelling scan complete",
		logging.Int("clubs", len(clubs)),
		logging.Int("pairs", len(out)))
	return out
}

func (e *Engine) misspellingDistance(a, b string, dist int) bool {
	if dist < 1 {
		return false
	}
	short := utf8.RuneCountInString(a) <= e.shortNameLength || utf8.RuneCountInString(b) <= e.shortNameLength
	if short {
		return dist == 1
	}
	return dist <= 2
}

// suggest expects first.ID < second.ID.
func suggest(first, second runnerdb.Club) runnerdb.Club {
	if second.RunnerCount > first.RunnerCount {
		return second
	}
	return first
}
