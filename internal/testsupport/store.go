package testsupport

import (
	"context"
	"testing"

	"runnerdb/internal/config"
	"runnerdb/internal/runnerdb"
)

// MustOpenStore opens a runnerdb.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runnerdb.Store {
	t.Helper()

	store, err := runnerdb.Open(cfg, nil)
	if err != nil {
		t.Fatalf("runnerdb.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Runner builds a runner with an optional birth year (0 means unknown).
func Runner(id, first, last string, birthYear int, club string) *runnerdb.Runner {
	r := &runnerdb.Runner{ID: id, FirstName: first, LastName: last, Club: club}
	if birthYear != 0 {
		year := birthYear
		r.BirthYear = &year
	}
	return r
}

// MustUpsert stores r and flushes it.
func MustUpsert(t testing.TB, store *runnerdb.Store, r *runnerdb.Runner) *runnerdb.Runner {
	t.Helper()

	stored, err := store.UpsertRunner(context.Background(), r)
	if err != nil {
		t.Fatalf("store.UpsertRunner(%s): %v", r.ID, err)
	}
	return stored
}
