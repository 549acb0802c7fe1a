package runnerdb

import (
	"sort"
	"strings"
)

// Clubs returns every club with its runner count, sorted by name.
func (s *Store) Clubs() []*Club {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := s.state.clubCounts()
	out := make([]*Club, 0, len(s.state.clubs))
	for _, c := range s.state.clubs {
		out = append(out, &Club{ID: c.ID, Name: c.Name, RunnerCount: counts[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Club returns the club with id.
func (s *Store) Club(id int64) (*Club, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	club, ok := s.state.clubs[id]
	if !ok {
		return nil, false
	}
	return s.state.clubWithCount(club), true
}

// ClubByName resolves a canonical club name.
func (s *Store) ClubByName(name string) (*Club, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.state.clubByName[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	return s.state.clubWithCount(s.state.clubs[id]), true
}

// Aliases returns every alias sorted by alias text.
func (s *Store) Aliases() []*ClubAlias {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ClubAlias, 0, len(s.state.aliases))
	for _, a := range s.state.aliases {
		out = append(out, s.state.resolveAlias(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Alias returns the alias entry for alias.
func (s *Store) Alias(alias string) (*ClubAlias, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.aliases[strings.TrimSpace(alias)]
	if !ok {
		return nil, false
	}
	return s.state.resolveAlias(a), true
}

// SuppressedPairs returns the suppression set sorted by pair.
func (s *Store) SuppressedPairs() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pair, 0, len(s.state.suppressed))
	for p := range s.state.suppressed {
		out = append(out, p)
	}
	sortPairs(out)
	return out
}

// IsSuppressed reports whether the unordered pair was marked unique.
func (s *Store) IsSuppressed(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.suppressed[NewPair(a, b)]
	return ok
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}
