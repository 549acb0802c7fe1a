// Package alias maintains the club alias table: operator-registered variant
// spellings that point at a canonical club. Aliases are display hints only.
// Nothing in import or duplicate scanning reads them.
package alias

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"runnerdb/internal/logging"
	"runnerdb/internal/runnerdb"
)

// Resolver reads and edits club aliases.
type Resolver struct {
	store  *runnerdb.Store
	logger *slog.Logger
}

// New creates a resolver bound to store.
func New(store *runnerdb.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logging.NewComponentLogger(logger, "alias"),
	}
}

// AddClubAlias maps alias to the club named canonicalClubName. Registering the
// same mapping twice is a no-op; mapping an alias already bound to another
// club fails with ErrConflict.
func (r *Resolver) AddClubAlias(ctx context.Context, alias, canonicalClubName string) (*runnerdb.ClubAlias, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, fmt.Errorf("%w: alias is required", runnerdb.ErrInvalidRecord)
	}
	var (
		out     *runnerdb.ClubAlias
		created bool
	)
	err := r.store.Update(ctx, func(tx *runnerdb.Tx) error {
		club, ok := tx.ClubByName(canonicalClubName)
		if !ok {
			return fmt.Errorf("%w: club %q", runnerdb.ErrNotFound, strings.TrimSpace(canonicalClubName))
		}
		if existing, ok := tx.Alias(alias); ok {
			if existing.ClubID != club.ID {
				return fmt.Errorf("%w: alias %q already maps to %q", runnerdb.ErrConflict, alias, existing.ClubName)
			}
			out = existing
			return nil
		}
		if err := tx.PutAlias(alias, club.ID); err != nil {
			return err
		}
		out, _ = tx.Alias(alias)
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		r.logger.Info("club alias added",
			logging.String(logging.FieldEventType, "alias_added"),
			logging.ClubID(out.ClubID),
			logging.String("alias", out.Alias),
			logging.String("club", out.ClubName))
	}
	return out, nil
}

// DeleteClubAlias removes alias. It fails with ErrNotFound when absent.
func (r *Resolver) DeleteClubAlias(ctx context.Context, alias string) error {
	err := r.store.Update(ctx, func(tx *runnerdb.Tx) error {
		return tx.DeleteAlias(alias)
	})
	if err != nil {
		return err
	}
	r.logger.Info("club alias removed",
		logging.String(logging.FieldEventType, "alias_removed"),
		logging.String("alias", strings.TrimSpace(alias)))
	return nil
}

// Lookup returns the alias entry for alias.
func (r *Resolver) Lookup(alias string) (*runnerdb.ClubAlias, bool) {
	return r.store.Alias(alias)
}

// List returns every alias sorted by alias text.
func (r *Resolver) List() []*runnerdb.ClubAlias {
	return r.store.Aliases()
}

// Hint returns an operator-facing note when name is a registered alias, for
// example `"QOC" maps to club "Quantico Orienteering Club"`. It returns ""
// for canonical names and unknown strings.
func (r *Resolver) Hint(name string) string {
	a, ok := r.store.Alias(name)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%q maps to club %q", a.Alias, a.ClubName)
}
