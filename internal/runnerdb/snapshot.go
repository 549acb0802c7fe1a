package runnerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"runnerdb/internal/logging"
)

// SnapshotFormat identifies the export layout understood by RestoreDatabase.
const SnapshotFormat = 1

// Snapshot is the serialized form of an entire store.
type Snapshot struct {
	Format       int           `json:"format"`
	SnapshotID   string        `json:"snapshot_id"`
	CreatedAt    time.Time     `json:"created_at"`
	LastUpdated  time.Time     `json:"last_updated,omitzero"`
	Runners      []*Runner     `json:"runners"`
	Clubs        []*Club       `json:"clubs"`
	Aliases      []*ClubAlias  `json:"aliases"`
	Suppressions []Suppression `json:"suppressions"`
}

// Suppression is one persisted "not a duplicate" decision.
type Suppression struct {
	Pair
	CreatedAt time.Time `json:"created_at"`
}

// ExportDatabase writes a JSON snapshot of the whole store to w and returns it.
func (s *Store) ExportDatabase(w io.Writer) (*Snapshot, error) {
	s.mu.RLock()
	snap := &Snapshot{
		Format:      SnapshotFormat,
		SnapshotID:  uuid.NewString(),
		CreatedAt:   s.now(),
		LastUpdated: s.state.lastUpdated,
	}
	s.mu.RUnlock()

	snap.Runners = s.Runners()
	snap.Clubs = s.Clubs()
	snap.Aliases = s.Aliases()

	s.mu.RLock()
	for _, p := range s.suppressedSorted() {
		snap.Suppressions = append(snap.Suppressions, Suppression{Pair: p, CreatedAt: s.state.suppressed[p]})
	}
	s.mu.RUnlock()
	if snap.Suppressions == nil {
		snap.Suppressions = []Suppression{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	s.logger.Info("database exported",
		logging.String("snapshot_id", snap.SnapshotID),
		logging.Int("runners", len(snap.Runners)),
		logging.Int("clubs", len(snap.Clubs)))
	return snap, nil
}

func (s *Store) suppressedSorted() []Pair {
	out := make([]Pair, 0, len(s.state.suppressed))
	for p := range s.state.suppressed {
		out = append(out, p)
	}
	sortPairs(out)
	return out
}

// RestoreDatabase replaces the entire store with the snapshot read from r.
// The snapshot is validated in full before anything changes; on any error the
// store is left untouched.
func (s *Store) RestoreDatabase(ctx context.Context, r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrInvalidRecord, err)
	}
	if snap.Format != SnapshotFormat {
		return nil, fmt.Errorf("%w: snapshot format %d, expected %d", ErrSchemaMismatch, snap.Format, SnapshotFormat)
	}

	err := s.Update(ctx, func(tx *Tx) error {
		next, err := buildState(&snap)
		if err != nil {
			return err
		}
		tx.replaceAll(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("database restored",
		logging.String("snapshot_id", snap.SnapshotID),
		logging.Int("runners", len(snap.Runners)),
		logging.Int("clubs", len(snap.Clubs)))
	return &snap, nil
}

// buildState validates a snapshot by replaying it into a fresh index through
// the same checks live mutations use.
func buildState(snap *Snapshot) (*state, error) {
	st := newState()
	scratch := &Tx{st: st, now: snap.CreatedAt, dirty: newPending()}

	for _, c := range snap.Clubs {
		if c == nil {
			continue
		}
		if c.ID <= 0 || c.Name == "" {
			return nil, fmt.Errorf("%w: club %d has no usable id or name", ErrInvalidRecord, c.ID)
		}
		if _, dup := st.clubs[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate club id %d", ErrConflict, c.ID)
		}
		if other, dup := st.clubByName[c.Name]; dup {
			return nil, fmt.Errorf("%w: club name %q used by %d and %d", ErrConflict, c.Name, other, c.ID)
		}
		st.clubs[c.ID] = &Club{ID: c.ID, Name: c.Name}
		st.clubByName[c.Name] = c.ID
		if c.ID >= st.nextClubID {
			st.nextClubID = c.ID + 1
		}
	}
	for _, r := range snap.Runners {
		if r == nil {
			continue
		}
		if _, dup := st.runners[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate runner id %s", ErrConflict, r.ID)
		}
		if err := scratch.PutRunner(r); err != nil {
			return nil, err
		}
	}
	for _, a := range snap.Aliases {
		if a == nil {
			continue
		}
		if err := scratch.PutAlias(a.Alias, a.ClubID); err != nil {
			return nil, err
		}
		if !a.CreatedAt.IsZero() {
			st.aliases[strings.TrimSpace(a.Alias)].CreatedAt = a.CreatedAt
		}
	}
	for _, sp := range snap.Suppressions {
		if err := scratch.Suppress(sp.A, sp.B); err != nil {
			return nil, err
		}
		if !sp.CreatedAt.IsZero() {
			st.suppressed[NewPair(sp.A, sp.B)] = sp.CreatedAt
		}
	}
	st.lastUpdated = snap.LastUpdated
	return st, nil
}
