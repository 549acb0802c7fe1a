package runnerdb

import (
	"strings"
	"time"
)

// DefaultNationality is applied to new runners that do not carry one.
const DefaultNationality = "USA"

// Sex is the optional runner sex marker.
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
)

// ParseSex converts common spellings ("m", "male", "F") into a Sex.
func ParseSex(value string) (Sex, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return SexUnknown, true
	case "M", "MALE":
		return SexMale, true
	case "F", "FEMALE":
		return SexFemale, true
	default:
		return SexUnknown, false
	}
}

// Runner is one competitor identity.
type Runner struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	BirthYear   *int      `json:"birth_year,omitempty"`
	Sex         Sex       `json:"sex,omitempty"`
	Club        string    `json:"club,omitempty"`
	ClubID      *int64    `json:"club_id,omitempty"`
	CardNumber  *int      `json:"card_number,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Nationality string    `json:"nationality"`
	TimesUsed   int       `json:"times_used"`
	LastUsed    time.Time `json:"last_used,omitzero"`
}

// Completeness counts the populated optional fields used to pick a merge survivor.
func (r Runner) Completeness() int {
	score := 0
	if r.BirthYear != nil {
		score++
	}
	if r.Sex != SexUnknown {
		score++
	}
	if r.CardNumber != nil {
		score++
	}
	if strings.TrimSpace(r.Phone) != "" {
		score++
	}
	if strings.TrimSpace(r.Email) != "" {
		score++
	}
	return score
}

// FullName returns "First Last" for display.
func (r Runner) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// NeedsCompletion reports whether the runner lacks a birth year or sex.
func (r Runner) NeedsCompletion() bool {
	return r.BirthYear == nil || r.Sex == SexUnknown
}

func (r *Runner) clone() *Runner {
	if r == nil {
		return nil
	}
	cp := *r
	if r.BirthYear != nil {
		v := *r.BirthYear
		cp.BirthYear = &v
	}
	if r.ClubID != nil {
		v := *r.ClubID
		cp.ClubID = &v
	}
	if r.CardNumber != nil {
		v := *r.CardNumber
		cp.CardNumber = &v
	}
	return &cp
}

// Club is a canonical club identity. RunnerCount is derived on read.
type Club struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RunnerCount int    `json:"runner_count"`
}

// ClubAlias maps a variant spelling to a club. ClubName is resolved from
// ClubID on read so renames never orphan an alias.
type ClubAlias struct {
	Alias     string    `json:"alias"`
	ClubID    int64     `json:"club_id"`
	ClubName  string    `json:"club_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Pair is an unordered runner id pair stored with A < B.
type Pair struct {
	A string `json:"runner_id_1"`
	B string `json:"runner_id_2"`
}

// NewPair orders the two ids so (x, y) and (y, x) produce the same Pair.
func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Stats is an aggregate snapshot of the store.
type Stats struct {
	TotalRunners int       `json:"total_runners"`
	TotalClubs   int       `json:"total_clubs"`
	LastUpdated  time.Time `json:"last_updated,omitzero"`
}
