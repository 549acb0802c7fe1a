package similarity

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"runnerdb/internal/config"
	"runnerdb/internal/logging"
	"runnerdb/internal/runnerdb"
	"runnerdb/internal/textutil"
)

// MaxScore caps every combined score.
const MaxScore = 100.0

// Candidate is a probable duplicate pair. RunnerID1 < RunnerID2.
type Candidate struct {
	RunnerID1     string  `json:"runner_id_1"`
	RunnerID2     string  `json:"runner_id_2"`
	Score         float64 `json:"similarity_score"`
	Reason        string  `json:"match_reason"`
	NameScore     float64 `json:"name_score"`
	SameBirthYear bool    `json:"same_birth_year"`
	SameClub      bool    `json:"same_club"`
}

// Pair returns the candidate's unordered runner pair.
func (c Candidate) Pair() runnerdb.Pair {
	return runnerdb.NewPair(c.RunnerID1, c.RunnerID2)
}

// SuppressedFunc reports whether a pair was marked as distinct runners.
type SuppressedFunc func(a, b string) bool

// Engine scores runners and clubs.
type Engine struct {
	birthYearBonus  float64
	clubBonus       float64
	blocking        bool
	shortNameLength int
	logger          *slog.Logger
}

// New builds an engine from the similarity config section.
func New(cfg config.Similarity, logger *slog.Logger) *Engine {
	return &Engine{
		birthYearBonus:  cfg.BirthYearBonus,
		clubBonus:       cfg.ClubBonus,
		blocking:        cfg.Blocking,
		shortNameLength: cfg.ShortClubNameLength,
		logger:          logging.NewComponentLogger(logger, "similarity"),
	}
}

// ScorePair computes the combined score of two runners.
func (e *Engine) ScorePair(a, b *runnerdb.Runner) Candidate {
	pair := runnerdb.NewPair(a.ID, b.ID)
	nameScore := textutil.Similarity(
		textutil.FullName(a.FirstName, a.LastName),
		textutil.FullName(b.FirstName, b.LastName),
	) * 100
	c := Candidate{
		RunnerID1:     pair.A,
		RunnerID2:     pair.B,
		NameScore:     nameScore,
		SameBirthYear: a.BirthYear != nil && b.BirthYear != nil && *a.BirthYear == *b.BirthYear,
		SameClub:      sameClub(a.Club, b.Club),
	}
	score := nameScore
	if c.SameBirthYear {
		score += e.birthYearBonus
	}
	if c.SameClub {
		score += e.clubBonus
	}
	c.Score = math.Min(score, MaxScore)
	c.Reason = e.reason(c)
	return c
}

func sameClub(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}

func (e *Engine) reason(c Candidate) string {
	var parts []string
	if c.NameScore >= MaxScore {
		parts = append(parts, "Same name")
	} else if c.NameScore > 0 {
		parts = append(parts, fmt.Sprintf("Similar name (%d%%)", int(math.Round(c.NameScore))))
	}
	if c.SameBirthYear && e.birthYearBonus > 0 {
		parts = append(parts, "same birth year")
	}
	if c.SameClub && e.clubBonus > 0 {
		parts = append(parts, "same club")
	}
	if len(parts) == 0 {
		return "No shared attributes"
	}
	reason := strings.Join(parts, ", ")
	return strings.ToUpper(reason[:1]) + reason[1:]
}

// FindDuplicates returns every unsuppressed pair scoring at least threshold,
// highest score first. A nil suppressed func suppresses nothing; nil runners
// are ignored.
func (e *Engine) FindDuplicates(runners []*runnerdb.Runner, suppressed SuppressedFunc, threshold float64) []Candidate {
	started := time.Now()
	runners = withoutNil(runners)
	compared := 0
	var out []Candidate

	consider := func(a, b *runnerdb.Runner) {
		if a.ID == b.ID {
			return
		}
		if suppressed != nil && suppressed(a.ID, b.ID) {
			return
		}
		compared++
		if c := e.ScorePair(a, b); c.Score >= threshold {
			out = append(out, c)
		}
	}

	if e.blocking {
		seen := make(map[runnerdb.Pair]struct{})
		for _, block := range blocks(runners) {
			for i := 0; i < len(block); i++ {
				for j := i + 1; j < len(block); j++ {
					pair := runnerdb.NewPair(block[i].ID, block[j].ID)
					if _, dup := seen[pair]; dup {
						continue
					}
					seen[pair] = struct{}{}
					consider(block[i], block[j])
				}
			}
		}
	} else {
		for i := 0; i < len(runners); i++ {
			for j := i + 1; j < len(runners); j++ {
				consider(runners[i], runners[j])
			}
		}
	}

	sortCandidates(out)
	e.logger.Debug("duplicate scan complete",
		logging.Float64(logging.FieldThreshold, threshold),
		logging.Int("runners", len(runners)),
		logging.Int("compared", compared),
		logging.Int("candidates", len(out)),
		logging.Duration("duration", time.Since(started)))
	return out
}

func withoutNil(runners []*runnerdb.Runner) []*runnerdb.Runner {
	out := make([]*runnerdb.Runner, 0, len(runners))
	for _, r := range runners {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// blocks groups runners by last-name initial and by birth year. A runner lands
// in one or two blocks; nil entries are ignored.
func blocks(runners []*runnerdb.Runner) [][]*runnerdb.Runner {
	index := make(map[string][]*runnerdb.Runner)
	var keys []string
	add := func(key string, r *runnerdb.Runner) {
		if _, ok := index[key]; !ok {
			keys = append(keys, key)
		}
		index[key] = append(index[key], r)
	}
	for _, r := range runners {
		if r == nil {
			continue
		}
		add("last:"+textutil.Initial(r.LastName), r)
		if r.BirthYear != nil {
			add(fmt.Sprintf("year:%d", *r.BirthYear), r)
		}
	}
	out := make([][]*runnerdb.Runner, 0, len(keys))
	for _, key := range keys {
		out = append(out, index[key])
	}
	return out
}

func sortCandidates(out []Candidate) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].RunnerID1 != out[j].RunnerID1 {
			return out[i].RunnerID1 < out[j].RunnerID1
		}
		return out[i].RunnerID2 < out[j].RunnerID2
	})
}
