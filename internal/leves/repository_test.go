package leves

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Leve{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := NewRepository(db)
	r.SetClock(func() time.Time { return testNow })
	return r
}

func fields(village string, daysAgo int) Fields {
	return Fields{
		Date:       testNow.AddDate(0, 0, -daysAgo),
		Village:    village,
		Region:     "Thiès",
		Commune:    "Thiès",
		Type:       "Champs",
		Quantite:   5,
		Appareil:   "LT60H",
		Topographe: "Mamadou GUEYE",
	}
}

func TestCreateAndListNewestFirst(t *testing.T) {
	r := setupRepo(t)
	if _, err := r.Create(fields("Fandène", 2), "bob"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(fields("Mbour 1", 0), "bob"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(fields("Saly", 1), "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	all, err := r.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].Village != "Mbour 1" || all[1].Village != "Saly" || all[2].Village != "Fandène" {
		t.Fatalf("wrong order: %s, %s, %s", all[0].Village, all[1].Village, all[2].Village)
	}

	bobs, err := r.ListBySuperviseur("bob")
	if err != nil {
		t.Fatalf("list by superviseur: %v", err)
	}
	if len(bobs) != 2 {
		t.Fatalf("expected 2 records for bob, got %d", len(bobs))
	}
}

func TestCreateValidatesAtBoundary(t *testing.T) {
	r := setupRepo(t)
	f := fields("", 0)
	f.Quantite = 0
	f.Date = testNow.AddDate(0, 0, 1)
	_, err := r.Create(f, "bob")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"village", "quantite", "date"} {
		if _, ok := verr.Violations[field]; !ok {
			t.Errorf("missing %s violation: %v", field, verr.Violations)
		}
	}
	all, _ := r.ListAll()
	if len(all) != 0 {
		t.Fatalf("invalid create must not write, found %d rows", len(all))
	}
}

func TestUpdateOwnership(t *testing.T) {
	r := setupRepo(t)
	id, err := r.Create(fields("Mbour 1", 1), "bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Non-owner superviseur is refused and nothing changes.
	f := fields("Saly", 0)
	if err := r.Update(id, f, "alice", models.RoleSuperviseur); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	got, _ := r.GetByID(id)
	if got.Village != "Mbour 1" {
		t.Fatalf("record mutated by unauthorized update: %s", got.Village)
	}

	// Owner may update.
	if err := r.Update(id, f, "bob", models.RoleSuperviseur); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	got, _ = r.GetByID(id)
	if got.Village != "Saly" || got.Superviseur != "bob" {
		t.Fatalf("update not applied: %+v", got)
	}

	// Admin bypasses ownership.
	f.Village = "Fandène"
	if err := r.Update(id, f, "root", models.RoleAdministrateur); err != nil {
		t.Fatalf("admin update: %v", err)
	}

	// Missing record.
	if err := r.Update(9999, f, "root", models.RoleAdministrateur); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteOwnership(t *testing.T) {
	r := setupRepo(t)
	id, err := r.Create(fields("Mbour 1", 0), "bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.Delete(id, "alice", models.RoleSuperviseur); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := r.GetByID(id); err != nil {
		t.Fatalf("record must survive unauthorized delete: %v", err)
	}
	if err := r.Delete(id, "topo", models.RoleTopographe); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("topographe delete: expected ErrUnauthorized, got %v", err)
	}

	if err := r.Delete(id, "bob", models.RoleSuperviseur); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := r.GetByID(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := r.Delete(id, "bob", models.RoleSuperviseur); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

// The ownership predicate lives inside the DELETE itself, so a record whose
// owner changed between the policy check and the write can never be removed
// by the stale actor.
func TestDeleteConditionalPredicateClosesRace(t *testing.T) {
	r := setupRepo(t)
	id, err := r.Create(fields("Mbour 1", 0), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate the record changing hands after alice's policy check would
	// have passed: the conditional WHERE still matches zero rows for her.
	if err := r.db.Model(&models.Leve{}).Where("id = ?", id).
		Update("superviseur", "bob").Error; err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if err := r.Delete(id, "alice", models.RoleSuperviseur); !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, err := r.GetByID(id); err != nil {
		t.Fatalf("record lost: %v", err)
	}
}

func TestListFiltered(t *testing.T) {
	r := setupRepo(t)
	f1 := fields("Mbour 1", 3)
	f2 := fields("Saly", 1)
	f2.Commune = "Mbour"
	f2.Type = "Bâtiments"
	if _, err := r.Create(f1, "bob"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(f2, "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Empty criteria behaves like ListAll.
	all, err := r.ListFiltered(Criteria{})
	if err != nil {
		t.Fatalf("empty criteria: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}

	// AND-combined predicates.
	start := testNow.AddDate(0, 0, -2)
	got, err := r.ListFiltered(Criteria{StartDate: &start, Type: "Bâtiments", Superviseur: "alice"})
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(got) != 1 || got[0].Village != "Saly" {
		t.Fatalf("got %+v", got)
	}

	// A predicate excluding everything.
	got, err = r.ListFiltered(Criteria{Type: "Bâtiments", Superviseur: "bob"})
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match, got %d", len(got))
	}
}

func TestFilterOptionsDistinctSorted(t *testing.T) {
	r := setupRepo(t)
	for _, v := range []struct{ village, sup string }{
		{"Saly", "bob"}, {"Mbour 1", "alice"}, {"Saly", "bob"},
	} {
		if _, err := r.Create(fields(v.village, 0), v.sup); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	opts, err := r.FilterOptions()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts.Villages) != 2 || opts.Villages[0] != "Mbour 1" || opts.Villages[1] != "Saly" {
		t.Fatalf("villages: %v", opts.Villages)
	}
	if len(opts.Superviseurs) != 2 || opts.Superviseurs[0] != "alice" {
		t.Fatalf("superviseurs: %v", opts.Superviseurs)
	}
	if len(opts.Types) != 1 || opts.Types[0] != "Champs" {
		t.Fatalf("types: %v", opts.Types)
	}
}
