package runnerdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	minBirthYear = 1900
	maxBirthYear = 2100
)

// Tx is a mutable view of the store passed to Update. Every change is applied
// to the index immediately and undone if the callback or the flush fails.
// A Tx must not be retained after its callback returns.
type Tx struct {
	st    *state
	now   time.Time
	undo  []func()
	dirty *pending
}

// Update runs fn against the index and flushes the result in one transaction.
// If fn returns an error or the flush fails, the index is restored to its
// state before fn ran.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	return s.mutate(ensureContext(ctx), true, fn)
}

func (s *Store) mutate(ctx context.Context, persist bool, fn func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.state, now: s.now(), dirty: newPending()}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if tx.dirty.empty() {
		return nil
	}

	prevUpdated := s.state.lastUpdated
	tx.record(func() { s.state.lastUpdated = prevUpdated })
	s.state.lastUpdated = tx.now
	s.mergePending(tx.dirty)

	if !persist {
		return nil
	}
	if err := s.flushLocked(ctx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// mergePending folds a transaction's dirty keys into the store's pending set.
// Keys are left pending after a rollback; rewriting an unchanged row is harmless.
func (s *Store) mergePending(d *pending) {
	p := s.pending
	p.meta = true
	p.rewrite = p.rewrite || d.rewrite
	for k := range d.runners {
		p.runners[k] = struct{}{}
	}
	for k := range d.clubs {
		p.clubs[k] = struct{}{}
	}
	for k := range d.aliases {
		p.aliases[k] = struct{}{}
	}
	for k := range d.pairs {
		p.pairs[k] = struct{}{}
	}
}

func (tx *Tx) record(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// Now returns the timestamp applied to every change in this transaction.
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) saveRunner(id string) {
	prev, existed := tx.st.runners[id]
	tx.record(func() {
		if existed {
			tx.st.runners[id] = prev
		} else {
			delete(tx.st.runners, id)
		}
	})
	tx.dirty.runners[id] = struct{}{}
}

func (tx *Tx) saveClub(id int64) {
	prev, existed := tx.st.clubs[id]
	var prevName string
	if existed {
		prevName = prev.Name
	}
	tx.record(func() {
		if cur, ok := tx.st.clubs[id]; ok {
			delete(tx.st.clubByName, cur.Name)
		}
		if existed {
			prev.Name = prevName
			tx.st.clubs[id] = prev
			tx.st.clubByName[prevName] = id
		} else {
			delete(tx.st.clubs, id)
		}
	})
	tx.dirty.clubs[id] = struct{}{}
}

func (tx *Tx) saveAlias(key string) {
	prev, existed := tx.st.aliases[key]
	tx.record(func() {
		if existed {
			tx.st.aliases[key] = prev
		} else {
			delete(tx.st.aliases, key)
		}
	})
	tx.dirty.aliases[key] = struct{}{}
}

// Runner returns a copy of the runner with id.
func (tx *Tx) Runner(id string) (*Runner, bool) {
	r, ok := tx.st.runners[strings.TrimSpace(id)]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// PutRunner validates r and stores a copy of it, replacing any runner with the
// same id. A ClubID must name an existing club; when only Club is set, the
// club is resolved by name and created if unknown.
func (tx *Tx) PutRunner(r *Runner) error {
	if r == nil {
		return fmt.Errorf("%w: nil runner", ErrInvalidRecord)
	}
	rec := r.clone()
	if err := tx.normalizeRunner(rec); err != nil {
		return err
	}
	tx.saveRunner(rec.ID)
	tx.st.runners[rec.ID] = rec
	return nil
}

func (tx *Tx) normalizeRunner(r *Runner) error {
	r.ID = strings.TrimSpace(r.ID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Club = strings.TrimSpace(r.Club)
	r.Nationality = strings.ToUpper(strings.TrimSpace(r.Nationality))
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if r.FirstName == "" || r.LastName == "" {
		return fmt.Errorf("%w: first and last name are required (id %s)", ErrInvalidRecord, r.ID)
	}
	if r.BirthYear != nil && (*r.BirthYear < minBirthYear || *r.BirthYear > maxBirthYear) {
		return fmt.Errorf("%w: birth year %d out of range (id %s)", ErrInvalidRecord, *r.BirthYear, r.ID)
	}
	switch r.Sex {
	case SexUnknown, SexMale, SexFemale:
	default:
		return fmt.Errorf("%w: sex %q must be M or F (id %s)", ErrInvalidRecord, r.Sex, r.ID)
	}
	if r.CardNumber != nil && *r.CardNumber < 0 {
		return fmt.Errorf("%w: negative card number (id %s)", ErrInvalidRecord, r.ID)
	}
	if r.TimesUsed < 0 {
		return fmt.Errorf("%w: negative usage count (id %s)", ErrInvalidRecord, r.ID)
	}
	if r.Nationality == "" {
		r.Nationality = DefaultNationality
	}

	switch {
	case r.ClubID != nil:
		club, ok := tx.st.clubs[*r.ClubID]
		if !ok {
			return fmt.Errorf("%w: club %d (runner %s)", ErrInvalidReference, *r.ClubID, r.ID)
		}
		r.Club = club.Name
	case r.Club != "":
		club, err := tx.EnsureClub(r.Club)
		if err != nil {
			return err
		}
		id := club.ID
		r.ClubID = &id
	}
	return nil
}

// DeleteRunner removes the runner with id.
func (tx *Tx) DeleteRunner(id string) error {
	id = strings.TrimSpace(id)
	if _, ok := tx.st.runners[id]; !ok {
		return fmt.Errorf("%w: runner %s", ErrNotFound, id)
	}
	tx.saveRunner(id)
	delete(tx.st.runners, id)
	return nil
}

// RunnersInClub returns copies of every runner referencing clubID, sorted by id.
func (tx *Tx) RunnersInClub(clubID int64) []*Runner {
	var out []*Runner
	for _, r := range tx.st.runners {
		if r.ClubID != nil && *r.ClubID == clubID {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Club returns a copy of the club with id, including its runner count.
func (tx *Tx) Club(id int64) (*Club, bool) {
	club, ok := tx.st.clubs[id]
	if !ok {
		return nil, false
	}
	return tx.st.clubWithCount(club), true
}

// ClubByName resolves a canonical club name, matched exactly after trimming.
func (tx *Tx) ClubByName(name string) (*Club, bool) {
	id, ok := tx.st.clubByName[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	return tx.Club(id)
}

// EnsureClub returns the club named name, creating it when absent.
func (tx *Tx) EnsureClub(name string) (*Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: club name is required", ErrInvalidRecord)
	}
	if club, ok := tx.ClubByName(name); ok {
		return club, nil
	}
	id := tx.st.nextClubID
	prevNext := tx.st.nextClubID
	tx.record(func() { tx.st.nextClubID = prevNext })
	tx.st.nextClubID++
	tx.saveClub(id)
	tx.st.clubs[id] = &Club{ID: id, Name: name}
	tx.st.clubByName[name] = id
	return &Club{ID: id, Name: name}, nil
}

// RenameClub changes a club's canonical name. Runners keep their club id;
// their display name follows the new canonical name.
func (tx *Tx) RenameClub(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: club name is required", ErrInvalidRecord)
	}
	club, ok := tx.st.clubs[id]
	if !ok {
		return fmt.Errorf("%w: club %d", ErrNotFound, id)
	}
	if club.Name == name {
		return nil
	}
	if other, taken := tx.st.clubByName[name]; taken && other != id {
		return fmt.Errorf("%w: club name %q already used by club %d", ErrConflict, name, other)
	}
	tx.saveClub(id)
	renamed := &Club{ID: id, Name: name}
	delete(tx.st.clubByName, club.Name)
	tx.st.clubs[id] = renamed
	tx.st.clubByName[name] = id

	for _, r := range tx.RunnersInClub(id) {
		r.Club = name
		tx.saveRunner(r.ID)
		tx.st.runners[r.ID] = r
	}
	return nil
}

// DeleteClub removes a club. It fails with ErrConflict while any runner or
// alias still references it.
func (tx *Tx) DeleteClub(id int64) error {
	club, ok := tx.st.clubs[id]
	if !ok {
		return fmt.Errorf("%w: club %d", ErrNotFound, id)
	}
	if n := len(tx.RunnersInClub(id)); n > 0 {
		return fmt.Errorf("%w: club %d still has %d runners", ErrConflict, id, n)
	}
	if n := len(tx.AliasesForClub(id)); n > 0 {
		return fmt.Errorf("%w: club %d still has %d aliases", ErrConflict, id, n)
	}
	tx.saveClub(id)
	delete(tx.st.clubByName, club.Name)
	delete(tx.st.clubs, id)
	return nil
}

// Alias returns the alias entry for alias with its club name resolved.
func (tx *Tx) Alias(alias string) (*ClubAlias, bool) {
	a, ok := tx.st.aliases[strings.TrimSpace(alias)]
	if !ok {
		return nil, false
	}
	return tx.st.resolveAlias(a), true
}

// PutAlias maps alias to clubID, replacing any existing mapping.
func (tx *Tx) PutAlias(alias string, clubID int64) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("%w: alias is required", ErrInvalidRecord)
	}
	if _, ok := tx.st.clubs[clubID]; !ok {
		return fmt.Errorf("%w: club %d (alias %q)", ErrInvalidReference, clubID, alias)
	}
	created := tx.now
	if prev, ok := tx.st.aliases[alias]; ok {
		created = prev.CreatedAt
	}
	tx.saveAlias(alias)
	tx.st.aliases[alias] = &ClubAlias{Alias: alias, ClubID: clubID, CreatedAt: created}
	return nil
}

// DeleteAlias removes the alias entry.
func (tx *Tx) DeleteAlias(alias string) error {
	alias = strings.TrimSpace(alias)
	if _, ok := tx.st.aliases[alias]; !ok {
		return fmt.Errorf("%w: alias %q", ErrNotFound, alias)
	}
	tx.saveAlias(alias)
	delete(tx.st.aliases, alias)
	return nil
}

// AliasesForClub returns every alias pointing at clubID, sorted by alias.
func (tx *Tx) AliasesForClub(clubID int64) []*ClubAlias {
	var out []*ClubAlias
	for _, a := range tx.st.aliases {
		if a.ClubID == clubID {
			out = append(out, tx.st.resolveAlias(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Suppress adds the unordered pair to the suppression set.
func (tx *Tx) Suppress(a, b string) error {
	if a == b {
		return fmt.Errorf("%w: cannot suppress runner %s against itself", ErrInvalidRecord, a)
	}
	pair := NewPair(a, b)
	if _, ok := tx.st.suppressed[pair]; ok {
		return nil
	}
	tx.record(func() { delete(tx.st.suppressed, pair) })
	tx.st.suppressed[pair] = tx.now
	tx.dirty.pairs[pair] = struct{}{}
	return nil
}

// replaceAll swaps the entire index for next. The flush rewrites every table.
func (tx *Tx) replaceAll(next *state) {
	prev := *tx.st
	tx.record(func() { *tx.st = prev })
	*tx.st = *next
	tx.dirty.rewrite = true
}

func (st *state) clubWithCount(club *Club) *Club {
	count := 0
	for _, r := range st.runners {
		if r.ClubID != nil && *r.ClubID == club.ID {
			count++
		}
	}
	return &Club{ID: club.ID, Name: club.Name, RunnerCount: count}
}

func (st *state) clubCounts() map[int64]int {
	counts := make(map[int64]int, len(st.clubs))
	for _, r := range st.runners {
		if r.ClubID != nil {
			counts[*r.ClubID]++
		}
	}
	return counts
}

func (st *state) resolveAlias(a *ClubAlias) *ClubAlias {
	out := *a
	if club, ok := st.clubs[a.ClubID]; ok {
		out.ClubName = club.Name
	}
	return &out
}
