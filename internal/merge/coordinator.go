package merge

import (
	"context"
	"fmt"
	"log/slog"

	"runnerdb/internal/logging"
	"runnerdb/internal/runnerdb"
)

// Coordinator applies merge decisions to a store.
type Coordinator struct {
	store  *runnerdb.Store
	logger *slog.Logger
}

// New creates a coordinator bound to store.
func New(store *runnerdb.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logging.NewComponentLogger(logger, "merge"),
	}
}

// RunnerResult reports which runner survived a merge.
type RunnerResult struct {
	Survivor *runnerdb.Runner `json:"survivor"`
	Removed  *runnerdb.Runner `json:"removed"`
}

// Survivor picks the runner to keep: higher completeness wins, ties keep first.
func Survivor(first, second *runnerdb.Runner) (keep, drop *runnerdb.Runner) {
	if second.Completeness() > first.Completeness() {
		return second, first
	}
	return first, second
}

// MergeRunners keeps the more complete of id1 and id2 unchanged and deletes
// the other. No fields are copied from the removed runner.
func (c *Coordinator) MergeRunners(ctx context.Context, id1, id2 string) (*RunnerResult, error) {
	if id1 == id2 {
		return nil, fmt.Errorf("%w: cannot merge runner %s with itself", runnerdb.ErrInvalidRecord, id1)
	}
	var result RunnerResult
	err := c.store.Update(ctx, func(tx *runnerdb.Tx) error {
		first, ok := tx.Runner(id1)
		if !ok {
			return fmt.Errorf("%w: runner %s", runnerdb.ErrNotFound, id1)
		}
		second, ok := tx.Runner(id2)
		if !ok {
			return fmt.Errorf("%w: runner %s", runnerdb.ErrNotFound, id2)
		}
		keep, drop := Survivor(first, second)
		if err := tx.DeleteRunner(drop.ID); err != nil {
			return err
		}
		result = RunnerResult{Survivor: keep, Removed: drop}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("runners merged",
		logging.String(logging.FieldEventType, "runner_merged"),
		logging.RunnerID(result.Survivor.ID),
		logging.String("removed_runner_id", result.Removed.ID),
		logging.Int("survivor_completeness", result.Survivor.Completeness()),
		logging.Int("removed_completeness", result.Removed.Completeness()))
	return &result, nil
}

// MarkDuplicateAsUnique records that id1 and id2 are different people. Both
// runners must exist when the decision is made.
func (c *Coordinator) MarkDuplicateAsUnique(ctx context.Context, id1, id2 string) error {
	err := c.store.Update(ctx, func(tx *runnerdb.Tx) error {
		for _, id := range []string{id1, id2} {
			if _, ok := tx.Runner(id); !ok {
				return fmt.Errorf("%w: runner %s", runnerdb.ErrNotFound, id)
			}
		}
		return tx.Suppress(id1, id2)
	})
	if err != nil {
		return err
	}
	pair := runnerdb.NewPair(id1, id2)
	c.logger.Info("duplicate pair suppressed",
		logging.String(logging.FieldEventType, "duplicate_suppressed"),
		logging.String("runner_id_1", pair.A),
		logging.String("runner_id_2", pair.B))
	return nil
}

// ClubMergeResult summarizes a club merge.
type ClubMergeResult struct {
	From         runnerdb.Club `json:"from"`
	Into         runnerdb.Club `json:"into"`
	MovedRunners int           `json:"moved_runners"`
	MovedAliases int           `json:"moved_aliases"`
}

// MergeClubs moves every runner and alias of fromID onto intoID and deletes
// fromID. Nothing changes unless every step succeeds.
func (c *Coordinator) MergeClubs(ctx context.Context, fromID, intoID int64) (*ClubMergeResult, error) {
	if fromID == intoID {
		return nil, fmt.Errorf("%w: cannot merge club %d into itself", runnerdb.ErrInvalidRecord, fromID)
	}
	var result ClubMergeResult
	err := c.store.Update(ctx, func(tx *runnerdb.Tx) error {
		from, ok := tx.Club(fromID)
		if !ok {
			return fmt.Errorf("%w: club %d", runnerdb.ErrNotFound, fromID)
		}
		into, ok := tx.Club(intoID)
		if !ok {
			return fmt.Errorf("%w: club %d", runnerdb.ErrNotFound, intoID)
		}

		for _, r := range tx.RunnersInClub(fromID) {
			target := intoID
			r.ClubID = &target
			r.Club = into.Name
			if err := tx.PutRunner(r); err != nil {
				return fmt.Errorf("reassign runner %s: %w", r.ID, err)
			}
			result.MovedRunners++
		}
		for _, a := range tx.AliasesForClub(fromID) {
			if err := tx.PutAlias(a.Alias, intoID); err != nil {
				return fmt.Errorf("re-point alias %q: %w", a.Alias, err)
			}
			result.MovedAliases++
		}
		if err := tx.DeleteClub(fromID); err != nil {
			return err
		}

		merged, _ := tx.Club(intoID)
		result.From = *from
		result.Into = *merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("clubs merged",
		logging.String(logging.FieldEventType, "club_merged"),
		logging.ClubID(intoID),
		logging.Int64("from_club_id", fromID),
		logging.String("from_club", result.From.Name),
		logging.Int("moved_runners", result.MovedRunners),
		logging.Int("moved_aliases", result.MovedAliases))
	return &result, nil
}

// RenameClub changes a club's canonical name. Aliases follow the club id and
// need no update.
func (c *Coordinator) RenameClub(ctx context.Context, clubID int64, name string) (*runnerdb.Club, error) {
	var (
		oldName string
		renamed *runnerdb.Club
	)
	err := c.store.Update(ctx, func(tx *runnerdb.Tx) error {
		club, ok := tx.Club(clubID)
		if !ok {
			return fmt.Errorf("%w: club %d", runnerdb.ErrNotFound, clubID)
		}
		oldName = club.Name
		if err := tx.RenameClub(clubID, name); err != nil {
			return err
		}
		renamed, _ = tx.Club(clubID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("club renamed",
		logging.String(logging.FieldEventType, "club_renamed"),
		logging.ClubID(clubID),
		logging.String("old_name", oldName),
		logging.String("new_name", renamed.Name))
	return renamed, nil
}
