package runnerdb_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"runnerdb/internal/runnerdb"
	"runnerdb/internal/testsupport"
)

func intp(v int) *int { return &v }

func reopen(t *testing.T, store *runnerdb.Store, cfgFn func() *runnerdb.Store) *runnerdb.Store {
	t.Helper()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return cfgFn()
}

func TestOpenCreatesSchemaAndPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := runnerdb.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	stored, err := store.UpsertRunner(ctx, testsupport.Runner("smith_jon_1990", "Jon", "Smith", 1990, "ClubA"))
	if err != nil {
		t.Fatalf("UpsertRunner: %v", err)
	}
	if stored.Nationality != runnerdb.DefaultNationality {
		t.Fatalf("expected default nationality, got %q", stored.Nationality)
	}
	if stored.ClubID == nil {
		t.Fatal("expected club id to be assigned from club name")
	}

	store = reopen(t, store, func() *runnerdb.Store { return testsupport.MustOpenStore(t, cfg) })
	got, ok := store.Runner("smith_jon_1990")
	if !ok {
		t.Fatal("expected runner to survive reopen")
	}
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Fatalf("runner changed across reopen (-want +got):\n%s", diff)
	}
	club, ok := store.ClubByName("ClubA")
	if !ok || club.RunnerCount != 1 {
		t.Fatalf("expected ClubA with one runner, got %+v ok=%v", club, ok)
	}
	if store.Stats().LastUpdated.IsZero() {
		t.Fatal("expected last updated to be persisted")
	}
}

func TestOpenRejectsSecondOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenStore(t, cfg)

	if _, err := runnerdb.Open(cfg, nil); !errors.Is(err, runnerdb.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := runnerdb.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := runnerdb.Open(cfg, nil); !errors.Is(err, runnerdb.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestUpsertOverwritesOnlyProvidedFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.Runner("r1", "Anna", "Lee", 1985, "North")
	first.Sex = runnerdb.SexFemale
	first.Phone = "555-0100"
	testsupport.MustUpsert(t, store, first)

	updated := testsupport.MustUpsert(t, store, &runnerdb.Runner{ID: "r1", Email: "anna@example.com", CardNumber: intp(4242)})
	if updated.FirstName != "Anna" || updated.Phone != "555-0100" || updated.Sex != runnerdb.SexFemale {
		t.Fatalf("expected existing fields kept, got %+v", updated)
	}
	if updated.Email != "anna@example.com" || updated.CardNumber == nil || *updated.CardNumber != 4242 {
		t.Fatalf("expected new fields applied, got %+v", updated)
	}
	if updated.Club != "North" {
		t.Fatalf("expected club kept, got %q", updated.Club)
	}

	moved, err := store.UpsertRunner(ctx, &runnerdb.Runner{ID: "r1", Club: "South"})
	if err != nil {
		t.Fatalf("UpsertRunner: %v", err)
	}
	south, _ := store.ClubByName("South")
	if moved.ClubID == nil || *moved.ClubID != south.ID {
		t.Fatalf("expected runner moved to South, got %+v", moved)
	}
	north, ok := store.ClubByName("North")
	if !ok {
		t.Fatal("expected empty club to be retained")
	}
	if north.RunnerCount != 0 {
		t.Fatalf("expected North to be empty, got %d", north.RunnerCount)
	}
}

func TestUpsertValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	missingClub := int64(99)

	tests := []struct {
		name   string
		runner *runnerdb.Runner
		want   error
	}{
		{"missing id", &runnerdb.Runner{FirstName: "A", LastName: "B"}, runnerdb.ErrInvalidRecord},
		{"missing first name", &runnerdb.Runner{ID: "x", LastName: "B"}, runnerdb.ErrInvalidRecord},
		{"missing last name", &runnerdb.Runner{ID: "x", FirstName: "A"}, runnerdb.ErrInvalidRecord},
		{"bad sex", &runnerdb.Runner{ID: "x", FirstName: "A", LastName: "B", Sex: "X"}, runnerdb.ErrInvalidRecord},
		{"bad birth year", &runnerdb.Runner{ID: "x", FirstName: "A", LastName: "B", BirthYear: intp(1200)}, runnerdb.ErrInvalidRecord},
		{"unknown club id", &runnerdb.Runner{ID: "x", FirstName: "A", LastName: "B", ClubID: &missingClub}, runnerdb.ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.UpsertRunner(ctx, tt.runner); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if got := len(store.Runners()); got != 0 {
		t.Fatalf("expected no runners after rejected upserts, got %d", got)
	}
	if got := len(store.Clubs()); got != 0 {
		t.Fatalf("expected no clubs after rejected upserts, got %d", got)
	}
}

func TestDeferredUpsertRequiresSave(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := runnerdb.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if _, err := store.UpsertRunner(ctx, testsupport.Runner("a", "Ann", "Able", 0, "Club"), runnerdb.Deferred()); err != nil {
		t.Fatalf("deferred upsert: %v", err)
	}
	if _, ok := store.Runner("a"); !ok {
		t.Fatal("expected deferred runner visible before Save")
	}
	if !store.HasPendingChanges() {
		t.Fatal("expected pending changes")
	}

	store = reopen(t, store, func() *runnerdb.Store {
		s, err := runnerdb.Open(cfg, nil)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
	if _, ok := store.Runner("a"); ok {
		t.Fatal("expected unsaved deferred runner to be lost")
	}

	if _, err := store.UpsertRunner(ctx, testsupport.Runner("b", "Ben", "Baker", 0, "Club"), runnerdb.Deferred()); err != nil {
		t.Fatalf("deferred upsert: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.HasPendingChanges() {
		t.Fatal("expected no pending changes after Save")
	}

	store = reopen(t, store, func() *runnerdb.Store { return testsupport.MustOpenStore(t, cfg) })
	if _, ok := store.Runner("b"); !ok {
		t.Fatal("expected saved runner to survive reopen")
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustUpsert(t, store, testsupport.Runner("a", "Ann", "Able", 1990, "Alpha"))
	alpha, _ := store.ClubByName("Alpha")

	boom := errors.New("boom")
	err := store.Update(context.Background(), func(tx *runnerdb.Tx) error {
		if _, err := tx.EnsureClub("Beta"); err != nil {
			return err
		}
		if err := tx.RenameClub(alpha.ID, "Alpha Renamed"); err != nil {
			return err
		}
		if err := tx.DeleteRunner("a"); err != nil {
			return err
		}
		if err := tx.Suppress("a", "b"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	if _, ok := store.Runner("a"); !ok {
		t.Fatal("expected deleted runner restored")
	}
	if _, ok := store.ClubByName("Beta"); ok {
		t.Fatal("expected created club rolled back")
	}
	if club, ok := store.ClubByName("Alpha"); !ok || club.ID != alpha.ID {
		t.Fatalf("expected rename rolled back, got %+v", club)
	}
	if _, ok := store.ClubByName("Alpha Renamed"); ok {
		t.Fatal("expected renamed name to be gone")
	}
	if store.IsSuppressed("a", "b") {
		t.Fatal("expected suppression rolled back")
	}
	if store.HasPendingChanges() {
		t.Fatal("expected nothing pending after rollback")
	}
}

func TestClubNameSwapPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := runnerdb.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.MustUpsert(t, store, testsupport.Runner("a", "Ann", "Able", 0, "One"))
	testsupport.MustUpsert(t, store, testsupport.Runner("b", "Ben", "Baker", 0, "Two"))
	one, _ := store.ClubByName("One")
	two, _ := store.ClubByName("Two")

	err = store.Update(context.Background(), func(tx *runnerdb.Tx) error {
		if err := tx.RenameClub(one.ID, "tmp"); err != nil {
			return err
		}
		if err := tx.RenameClub(two.ID, "One"); err != nil {
			return err
		}
		return tx.RenameClub(one.ID, "Two")
	})
	if err != nil {
		t.Fatalf("swap names: %v", err)
	}

	store = reopen(t, store, func() *runnerdb.Store { return testsupport.MustOpenStore(t, cfg) })
	if club, ok := store.ClubByName("Two"); !ok || club.ID != one.ID {
		t.Fatalf("expected club %d named Two, got %+v", one.ID, club)
	}
	if r, _ := store.Runner("a"); r.Club != "Two" {
		t.Fatalf("expected runner display name refreshed, got %q", r.Club)
	}
}

func TestSearchRunners(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustUpsert(t, store, testsupport.Runner("1", "John", "Smith", 1990, ""))
	testsupport.MustUpsert(t, store, testsupport.Runner("2", "Johnny", "Smithers", 1991, ""))
	testsupport.MustUpsert(t, store, testsupport.Runner("3", "Mary", "Jones", 1992, ""))
	if _, err := store.RecordUsage(ctx, "2"); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	got := store.SearchRunners("SMITH", 0)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"2", "1"}, ids); diff != "" {
		t.Fatalf("unexpected search order (-want +got):\n%s", diff)
	}
	if got := store.SearchRunners("john smith", 10); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected concatenated name match, got %+v", got)
	}
	if got := store.SearchRunners("o", 1); len(got) != 1 {
		t.Fatalf("expected limit respected, got %d", len(got))
	}
	if got := store.SearchRunners("   ", 10); len(got) != 0 {
		t.Fatalf("expected empty search to match nothing, got %d", len(got))
	}
	if _, err := store.RecordUsage(ctx, "missing"); !errors.Is(err, runnerdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRunnerKeepsSuppressions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustUpsert(t, store, testsupport.Runner("a", "Ann", "Able", 0, ""))
	testsupport.MustUpsert(t, store, testsupport.Runner("b", "Anne", "Able", 0, ""))
	if err := store.Update(ctx, func(tx *runnerdb.Tx) error { return tx.Suppress("b", "a") }); err != nil {
		t.Fatalf("Suppress: %v", err)
	}

	if err := store.DeleteRunner(ctx, " a "); err != nil {
		t.Fatalf("DeleteRunner with padded id: %v", err)
	}
	if _, ok := store.Runner("a"); ok {
		t.Fatal("expected runner a to be deleted")
	}
	if err := store.DeleteRunner(ctx, "a"); !errors.Is(err, runnerdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if !store.IsSuppressed("a", "b") {
		t.Fatal("expected suppression to outlive runner deletion")
	}
}

func TestReadsNeverFail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, ok := store.Runner("nope"); ok {
		t.Fatal("expected miss")
	}
	if got := store.RunnersByClub("nope"); len(got) != 0 {
		t.Fatalf("expected no runners, got %d", len(got))
	}
	if _, ok := store.Club(42); ok {
		t.Fatal("expected club miss")
	}
	if _, ok := store.Alias("nope"); ok {
		t.Fatal("expected alias miss")
	}
	stats := store.Stats()
	if stats.TotalRunners != 0 || stats.TotalClubs != 0 || !stats.LastUpdated.IsZero() {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
}

func TestDataQualityIssuesAndRunnersByClub(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	complete := testsupport.Runner("a", "Ann", "Able", 1990, "Alpha")
	complete.Sex = runnerdb.SexFemale
	testsupport.MustUpsert(t, store, complete)
	testsupport.MustUpsert(t, store, testsupport.Runner("b", "Ben", "Baker", 1991, "Alpha"))
	noYear := testsupport.Runner("c", "Cy", "Cole", 0, "Beta")
	noYear.Sex = runnerdb.SexMale
	testsupport.MustUpsert(t, store, noYear)

	var issues []string
	for _, r := range store.DataQualityIssues() {
		issues = append(issues, r.ID)
	}
	if diff := cmp.Diff([]string{"b", "c"}, issues); diff != "" {
		t.Fatalf("unexpected quality issues (-want +got):\n%s", diff)
	}
	if got := store.RunnersByClub("Alpha"); len(got) != 2 {
		t.Fatalf("expected two Alpha runners, got %d", len(got))
	}
	stats := store.Stats()
	if stats.TotalRunners != 3 || stats.TotalClubs != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustUpsert(t, store, testsupport.Runner("a", "Ann", "Able", 1990, "Alpha"))
	testsupport.MustUpsert(t, store, testsupport.Runner("b", "Anne", "Able", 1990, "Beta"))
	alpha, _ := store.ClubByName("Alpha")
	err := store.Update(ctx, func(tx *runnerdb.Tx) error {
		if err := tx.PutAlias("ALF", alpha.ID); err != nil {
			return err
		}
		return tx.Suppress("a", "b")
	})
	if err != nil {
		t.Fatalf("seed aliases: %v", err)
	}

	var buf bytes.Buffer
	snap, err := store.ExportDatabase(&buf)
	if err != nil {
		t.Fatalf("ExportDatabase: %v", err)
	}
	if snap.SnapshotID == "" || len(snap.Runners) != 2 || len(snap.Suppressions) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	wantRunners := store.Runners()
	wantClubs := store.Clubs()
	wantAliases := store.Aliases()
	exported := buf.Bytes()

	target := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.MustUpsert(t, target, testsupport.Runner("z", "Zed", "Zulu", 0, "Other"))
	if _, err := target.RestoreDatabase(ctx, bytes.NewReader(exported)); err != nil {
		t.Fatalf("RestoreDatabase: %v", err)
	}

	if diff := cmp.Diff(wantRunners, target.Runners()); diff != "" {
		t.Fatalf("runners differ after restore (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantClubs, target.Clubs()); diff != "" {
		t.Fatalf("clubs differ after restore (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantAliases, target.Aliases(), cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("aliases differ after restore (-want +got):\n%s", diff)
	}
	if !target.IsSuppressed("b", "a") {
		t.Fatal("expected suppression restored")
	}
	if _, ok := target.Runner("z"); ok {
		t.Fatal("expected restore to replace existing runners")
	}
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustUpsert(t, store, testsupport.Runner("keep", "Kim", "Keep", 0, ""))
	ctx := context.Background()

	tests := []struct {
		name string
		body string
		want error
	}{
		{"garbage", `not json`, runnerdb.ErrInvalidRecord},
		{"wrong format", `{"format": 7}`, runnerdb.ErrSchemaMismatch},
		{"dangling club", `{"format": 1, "runners": [{"id": "x", "first_name": "A", "last_name": "B", "club_id": 5}]}`, runnerdb.ErrInvalidReference},
		{"nameless runner", `{"format": 1, "runners": [{"id": "x", "first_name": "", "last_name": "B"}]}`, runnerdb.ErrInvalidRecord},
		{"duplicate club name", `{"format": 1, "clubs": [{"id": 1, "name": "A"}, {"id": 2, "name": "A"}]}`, runnerdb.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.RestoreDatabase(ctx, bytes.NewBufferString(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if _, ok := store.Runner("keep"); !ok {
				t.Fatal("expected store untouched after rejected restore")
			}
		})
	}
}
