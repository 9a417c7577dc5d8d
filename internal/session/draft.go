// Package session holds the per-session entry-form draft and its cascading
// selection rules. The draft is the only state the form keeps between
// renders: option lists are always recomputed from the hierarchy with the
// current ancestor selections, never stored here.
package session

import (
	"time"

	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/validation"
)

// Draft is one user's in-progress survey entry. EditID is non-zero when an
// existing record has been loaded for modification. TypeLabel carries a
// stored type that is not among the current options (legacy or free-text
// data); it only applies while TypeIndex is negative, so an edit never
// silently rewrites such a record's type.
type Draft struct {
	Region     string
	Commune    string
	Village    string
	Appareil   string
	TypeIndex  int
	TypeLabel  string
	Quantite   int
	Topographe string
	Date       time.Time
	EditID     uint
}

// NewDraft returns an empty draft with the original form defaults.
func NewDraft() Draft {
	return Draft{Quantite: 1}
}

// SetRegion records a region selection. A change to a different value
// clears the commune and village in the same step, so a descendant can
// never reference a stale ancestor. Re-selecting the current value is a
// no-op, which is what lets edit seeding and form re-posts pass through
// without wiping the draft.
func (d *Draft) SetRegion(region string) {
	if region == d.Region {
		return
	}
	d.Region = region
	d.Commune = ""
	d.Village = ""
}

// SetCommune records a commune selection; a change clears the village only.
func (d *Draft) SetCommune(commune string) {
	if commune == d.Commune {
		return
	}
	d.Commune = commune
	d.Village = ""
}

func (d *Draft) SetVillage(village string) {
	d.Village = village
}

// SeedFromLeve pre-populates the draft from an existing record and marks it
// as the edit target. Seeding assigns fields directly: the cascade rules
// fire on user-driven changes, not on loading a stored, already-consistent
// selection.
func (d *Draft) SeedFromLeve(l *models.Leve) {
	d.Region = l.Region
	d.Commune = l.Commune
	d.Village = l.Village
	d.Appareil = l.Appareil
	d.TypeIndex = typeIndex(l.Type)
	d.TypeLabel = ""
	if d.TypeIndex < 0 {
		d.TypeLabel = l.Type
	}
	d.Quantite = l.Quantite
	d.Topographe = l.Topographe
	d.Date = l.Date
	d.EditID = l.ID
}

// Editing reports whether the draft targets an existing record.
func (d *Draft) Editing() bool { return d.EditID != 0 }

// Reset clears everything, including the edit target. Called after a
// successful submit and on cancel; a failed submit leaves the draft as-is
// so the user keeps their input.
func (d *Draft) Reset() {
	*d = NewDraft()
}

// TypeName resolves the selected survey type label. A negative index keeps
// the label of the record being edited.
func (d *Draft) TypeName() string {
	if d.TypeIndex >= 0 && d.TypeIndex < len(models.TypeOptions) {
		return models.TypeOptions[d.TypeIndex]
	}
	if d.TypeIndex < 0 {
		return d.TypeLabel
	}
	return ""
}

func typeIndex(name string) int {
	for i, t := range models.TypeOptions {
		if t == name {
			return i
		}
	}
	return -1
}

// Validate checks every submission rule at once and returns the full set of
// violations; an empty result is the only green light for a write.
func (d *Draft) Validate(now time.Time) validation.Violations {
	v := validation.Violations{}
	validation.Required("village", d.Village, v)
	validation.Required("region", d.Region, v)
	validation.Required("commune", d.Commune, v)
	validation.Required("topographe", d.Topographe, v)
	validation.Required("appareil", d.Appareil, v)
	validation.Required("type", d.TypeName(), v)
	validation.PositiveInt("quantite", d.Quantite, v)
	if d.Date.IsZero() {
		v["date"] = "required"
	} else {
		validation.NotFutureDate("date", d.Date, now, v)
	}
	return v
}
