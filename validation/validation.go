package validation

import (
	"sort"
	"strings"
	"time"
)

// Violations collects every failed rule for one submission, keyed by field.
// Callers check Empty() before attempting any write so the user sees all
// problems at once instead of one per round-trip.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names in alphabetical order, convenient
// for a single user-facing message ("Veuillez renseigner: commune, village").
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

// NotFutureDate rejects dates strictly after today. Both sides are truncated
// to day precision so an entry dated today passes regardless of clock time.
func NotFutureDate(field string, val, now time.Time, v Violations) {
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if day(val).After(day(now)) {
		v[field] = "date_in_future"
	}
}
