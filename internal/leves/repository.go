// Package leves implements survey storage: CRUD with ownership-aware
// mutations, filtered reads for the reporting pages, and the distinct-value
// lists feeding the filter dropdowns.
package leves

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/policy"
	"github.com/diewo77/topo-leves/validation"
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// SetClock overrides the current-date source, for tests.
func (r *Repository) SetClock(now func() time.Time) { r.now = now }

// Fields is the mutable part of a record for create and update. The owner
// (superviseur) is never part of it: it is fixed at creation from the
// authenticated session and the update predicate re-encodes it.
type Fields struct {
	Date       time.Time
	Village    string
	Region     string
	Commune    string
	Type       string
	Quantite   int
	Appareil   string
	Topographe string
}

func (f Fields) validate(now time.Time) validation.Violations {
	v := validation.Violations{}
	validation.Required("village", f.Village, v)
	validation.Required("region", f.Region, v)
	validation.Required("commune", f.Commune, v)
	validation.Required("type", f.Type, v)
	validation.Required("appareil", f.Appareil, v)
	validation.Required("topographe", f.Topographe, v)
	validation.PositiveInt("quantite", f.Quantite, v)
	if f.Date.IsZero() {
		v["date"] = "required"
	} else {
		validation.NotFutureDate("date", f.Date, now, v)
	}
	return v
}

// Create inserts a new record owned by superviseur. The fields are
// re-validated here even though the form layer already did, so no invalid
// row can ever reach storage. The new record is immediately visible to
// subsequent reads.
func (r *Repository) Create(f Fields, superviseur string) (uint, error) {
	v := f.validate(r.now())
	validation.Required("superviseur", superviseur, v)
	if !v.Empty() {
		return 0, &ValidationError{Violations: v}
	}
	l := models.Leve{
		Date:        f.Date,
		Village:     f.Village,
		Region:      f.Region,
		Commune:     f.Commune,
		Type:        f.Type,
		Quantite:    f.Quantite,
		Appareil:    f.Appareil,
		Topographe:  f.Topographe,
		Superviseur: superviseur,
	}
	if err := r.db.Create(&l).Error; err != nil {
		return 0, storageErr(err)
	}
	return l.ID, nil
}

// Update rewrites every mutable field of one record. The stored owner is
// re-read for the policy check (a client-supplied ownership claim is never
// trusted) and, for non-admin actors, the UPDATE itself carries the
// ownership predicate so the check and the mutation cannot disagree under
// concurrency. Zero matched rows after a passed check reports ErrNotFound.
func (r *Repository) Update(id uint, f Fields, acting, role string) error {
	if v := f.validate(r.now()); !v.Empty() {
		return &ValidationError{Violations: v}
	}
	stored, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if !policy.CanEditOrDeleteLeve(role, acting, stored.Superviseur) {
		return ErrUnauthorized
	}
	updates := map[string]any{
		"date":       f.Date,
		"village":    f.Village,
		"region":     f.Region,
		"commune":    f.Commune,
		"type":       f.Type,
		"quantite":   f.Quantite,
		"appareil":   f.Appareil,
		"topographe": f.Topographe,
	}
	q := r.db.Model(&models.Leve{}).Where("id = ?", id)
	if !policy.IsAdmin(role) {
		q = q.Where("superviseur = ?", acting)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one record under the same discipline as Update:
// unconditional for administrators, ownership-conditional for superviseurs.
func (r *Repository) Delete(id uint, acting, role string) error {
	stored, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if !policy.CanEditOrDeleteLeve(role, acting, stored.Superviseur) {
		return ErrUnauthorized
	}
	q := r.db.Where("id = ?", id)
	if !policy.IsAdmin(role) {
		q = q.Where("superviseur = ?", acting)
	}
	res := q.Delete(&models.Leve{})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(id uint) (*models.Leve, error) {
	var l models.Leve
	if err := r.db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &l, nil
}

func (r *Repository) list(q *gorm.DB) ([]models.Leve, error) {
	var out []models.Leve
	if err := q.Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// ListAll returns every record, newest date first.
func (r *Repository) ListAll() ([]models.Leve, error) {
	return r.list(r.db.Model(&models.Leve{}))
}

func (r *Repository) ListByTopographe(name string) ([]models.Leve, error) {
	return r.list(r.db.Where("topographe = ?", name))
}

func (r *Repository) ListBySuperviseur(username string) ([]models.Leve, error) {
	return r.list(r.db.Where("superviseur = ?", username))
}

// Criteria is a set of optional AND-combined predicates. Zero values impose
// no constraint, so the zero Criteria is equivalent to ListAll.
type Criteria struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Village     string
	Region      string
	Commune     string
	Type        string
	Appareil    string
	Topographe  string
	Superviseur string
}

func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// ListFiltered applies the present criteria, newest date first.
func (r *Repository) ListFiltered(c Criteria) ([]models.Leve, error) {
	q := r.db.Model(&models.Leve{})
	if c.StartDate != nil {
		q = q.Where("date >= ?", *c.StartDate)
	}
	if c.EndDate != nil {
		q = q.Where("date <= ?", *c.EndDate)
	}
	for col, val := range map[string]string{
		"village":     c.Village,
		"region":      c.Region,
		"commune":     c.Commune,
		"type":        c.Type,
		"appareil":    c.Appareil,
		"topographe":  c.Topographe,
		"superviseur": c.Superviseur,
	} {
		if val != "" {
			q = q.Where(col+" = ?", val)
		}
	}
	return r.list(q)
}

// FilterOptions holds the distinct values currently present in storage,
// each list sorted ascending. They feed the filter dropdowns of the
// reporting and admin pages.
type FilterOptions struct {
	Villages     []string
	Regions      []string
	Communes     []string
	Types        []string
	Appareils    []string
	Topographes  []string
	Superviseurs []string
}

func (r *Repository) distinct(column string) ([]string, error) {
	var out []string
	err := r.db.Model(&models.Leve{}).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct(column).
		Order(column + " ASC").
		Pluck(column, &out).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// FilterOptions recomputes every distinct-value list from live data.
func (r *Repository) FilterOptions() (FilterOptions, error) {
	var opts FilterOptions
	for _, d := range []struct {
		column string
		dest   *[]string
	}{
		{"village", &opts.Villages},
		{"region", &opts.Regions},
		{"commune", &opts.Communes},
		{"type", &opts.Types},
		{"appareil", &opts.Appareils},
		{"topographe", &opts.Topographes},
		{"superviseur", &opts.Superviseurs},
	} {
		vals, err := r.distinct(d.column)
		if err != nil {
			return FilterOptions{}, err
		}
		*d.dest = vals
	}
	return opts, nil
}
