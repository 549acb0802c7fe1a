package runnerdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type upsertOptions struct {
	deferred bool
}

// UpsertOption adjusts a single UpsertRunner call.
type UpsertOption func(*upsertOptions)

// Deferred keeps the upsert in memory until the next Save. Reads see it
// immediately.
func Deferred() UpsertOption {
	return func(o *upsertOptions) { o.deferred = true }
}

// UpsertRunner inserts r when its id is new, otherwise overwrites the provided
// fields of the stored runner. Provided means a non-empty string or a non-nil
// pointer. Without Deferred the change and any earlier deferred changes are
// flushed before returning.
func (s *Store) UpsertRunner(ctx context.Context, r *Runner, opts ...UpsertOption) (*Runner, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil runner", ErrInvalidRecord)
	}
	var o upsertOptions
	for _, opt := range opts {
		opt(&o)
	}

	var stored *Runner
	err := s.mutate(ensureContext(ctx), !o.deferred, func(tx *Tx) error {
		next := r.clone()
		if existing, ok := tx.Runner(strings.TrimSpace(r.ID)); ok {
			next = overlayRunner(existing, r)
		}
		if err := tx.PutRunner(next); err != nil {
			return err
		}
		stored, _ = tx.Runner(strings.TrimSpace(next.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func overlayRunner(base, in *Runner) *Runner {
	out := base.clone()
	src := in.clone()
	if strings.TrimSpace(src.FirstName) != "" {
		out.FirstName = src.FirstName
	}
	if strings.TrimSpace(src.LastName) != "" {
		out.LastName = src.LastName
	}
	if src.BirthYear != nil {
		out.BirthYear = src.BirthYear
	}
	if src.Sex != SexUnknown {
		out.Sex = src.Sex
	}
	switch {
	case src.ClubID != nil:
		out.ClubID = src.ClubID
		out.Club = ""
	case strings.TrimSpace(src.Club) != "":
		out.Club = src.Club
		out.ClubID = nil
	}
	if src.CardNumber != nil {
		out.CardNumber = src.CardNumber
	}
	if strings.TrimSpace(src.Phone) != "" {
		out.Phone = src.Phone
	}
	if strings.TrimSpace(src.Email) != "" {
		out.Email = src.Email
	}
	if strings.TrimSpace(src.Nationality) != "" {
		out.Nationality = src.Nationality
	}
	if src.TimesUsed > 0 {
		out.TimesUsed = src.TimesUsed
	}
	if !src.LastUsed.IsZero() {
		out.LastUsed = src.LastUsed
	}
	return out
}

// DeleteRunner removes the runner with id and flushes. Suppressed pairs that
// name the runner are left in place.
func (s *Store) DeleteRunner(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error {
		return tx.DeleteRunner(id)
	})
}

// RecordUsage bumps the usage counter that ranks autocomplete results.
func (s *Store) RecordUsage(ctx context.Context, id string) (*Runner, error) {
	var out *Runner
	err := s.Update(ctx, func(tx *Tx) error {
		r, ok := tx.Runner(id)
		if !ok {
			return fmt.Errorf("%w: runner %s", ErrNotFound, id)
		}
		r.TimesUsed++
		r.LastUsed = tx.Now()
		if err := tx.PutRunner(r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// Runner returns the runner with id.
func (s *Store) Runner(id string) (*Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.runners[id]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// Runners returns every runner sorted by id.
func (s *Store) Runners() []*Runner {
	return s.filterRunners(func(*Runner) bool { return true })
}

// RunnersByClub returns the runners whose club display name equals name.
func (s *Store) RunnersByClub(name string) []*Runner {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.filterRunners(func(r *Runner) bool { return r.Club == name })
}

// DataQualityIssues returns runners missing a birth year or sex.
func (s *Store) DataQualityIssues() []*Runner {
	return s.filterRunners(func(r *Runner) bool { return r.NeedsCompletion() })
}

func (s *Store) filterRunners(keep func(*Runner) bool) []*Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Runner, 0, len(s.state.runners))
	for _, r := range s.state.runners {
		if keep(r) {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SearchRunners matches text case-insensitively against "first last". Results
// rank most-used runners first. A limit of zero or less means no cap; empty
// text matches nothing.
func (s *Store) SearchRunners(text string, limit int) []*Runner {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	matches := s.filterRunners(func(r *Runner) bool {
		return strings.Contains(strings.ToLower(r.FirstName+" "+r.LastName), needle)
	})
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.TimesUsed != b.TimesUsed {
			return a.TimesUsed > b.TimesUsed
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Stats returns aggregate counts and the time of the last mutation.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalRunners: len(s.state.runners),
		TotalClubs:   len(s.state.clubs),
		LastUpdated:  s.state.lastUpdated,
	}
}
