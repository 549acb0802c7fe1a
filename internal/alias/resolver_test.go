package alias_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"runnerdb/internal/alias"
	"runnerdb/internal/runnerdb"
	"runnerdb/internal/testsupport"
)

func newResolver(t *testing.T) (*runnerdb.Store, *alias.Resolver) {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.MustUpsert(t, store, testsupport.Runner("a", "Ann", "Able", 0, "Quantico Orienteering Club"))
	testsupport.MustUpsert(t, store, testsupport.Runner("b", "Ben", "Baker", 0, "Hudson Valley Orienteering"))
	return store, alias.New(store, nil)
}

func TestAddClubAlias(t *testing.T) {
	_, resolver := newResolver(t)
	ctx := context.Background()

	added, err := resolver.AddClubAlias(ctx, " QOC ", "Quantico Orienteering Club")
	if err != nil {
		t.Fatalf("AddClubAlias: %v", err)
	}
	if added.Alias != "QOC" || added.ClubName != "Quantico Orienteering Club" {
		t.Fatalf("unexpected alias: %+v", added)
	}

	again, err := resolver.AddClubAlias(ctx, "QOC", "Quantico Orienteering Club")
	if err != nil {
		t.Fatalf("expected idempotent re-add, got %v", err)
	}
	if !again.CreatedAt.Equal(added.CreatedAt) {
		t.Fatal("expected re-add to keep the original entry")
	}

	if _, err := resolver.AddClubAlias(ctx, "QOC", "Hudson Valley Orienteering"); !errors.Is(err, runnerdb.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := resolver.AddClubAlias(ctx, "XYZ", "No Such Club"); !errors.Is(err, runnerdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := resolver.AddClubAlias(ctx, "  ", "Quantico Orienteering Club"); !errors.Is(err, runnerdb.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}

	got, ok := resolver.Lookup("QOC")
	if !ok || got.ClubName != "Quantico Orienteering Club" {
		t.Fatalf("unexpected lookup: %+v ok=%v", got, ok)
	}
}

func TestDeleteClubAlias(t *testing.T) {
	_, resolver := newResolver(t)
	ctx := context.Background()

	if _, err := resolver.AddClubAlias(ctx, "HVO", "Hudson Valley Orienteering"); err != nil {
		t.Fatalf("AddClubAlias: %v", err)
	}
	if err := resolver.DeleteClubAlias(ctx, "HVO"); err != nil {
		t.Fatalf("DeleteClubAlias: %v", err)
	}
	if _, ok := resolver.Lookup("HVO"); ok {
		t.Fatal("expected alias removed")
	}
	if err := resolver.DeleteClubAlias(ctx, "HVO"); !errors.Is(err, runnerdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndHint(t *testing.T) {
	_, resolver := newResolver(t)
	ctx := context.Background()

	for alias, club := range map[string]string{
		"QOC":    "Quantico Orienteering Club",
		"HVO":    "Hudson Valley Orienteering",
		"Q.O.C.": "Quantico Orienteering Club",
	} {
		if _, err := resolver.AddClubAlias(ctx, alias, club); err != nil {
			t.Fatalf("AddClubAlias(%s): %v", alias, err)
		}
	}

	var names []string
	for _, a := range resolver.List() {
		names = append(names, a.Alias)
	}
	if diff := cmp.Diff([]string{"HVO", "Q.O.C.", "QOC"}, names); diff != "" {
		t.Fatalf("unexpected alias order (-want +got):\n%s", diff)
	}

	if hint := resolver.Hint("QOC"); hint != `"QOC" maps to club "Quantico Orienteering Club"` {
		t.Fatalf("unexpected hint: %q", hint)
	}
	if hint := resolver.Hint("Quantico Orienteering Club"); hint != "" {
		t.Fatalf("expected no hint for canonical name, got %q", hint)
	}
}

func TestAliasesAreNotAppliedToRunners(t *testing.T) {
	store, resolver := newResolver(t)
	ctx := context.Background()
	if _, err := resolver.AddClubAlias(ctx, "QOC", "Quantico Orienteering Club"); err != nil {
		t.Fatalf("AddClubAlias: %v", err)
	}

	stored := testsupport.MustUpsert(t, store, testsupport.Runner("c", "Cy", "Cole", 0, "QOC"))
	if stored.Club != "QOC" {
		t.Fatalf("expected alias text kept as its own club, got %q", stored.Club)
	}
	canonical, _ := store.ClubByName("Quantico Orienteering Club")
	if stored.ClubID == nil || *stored.ClubID == canonical.ID {
		t.Fatal("expected alias not to be substituted on upsert")
	}
}
