// Package cache memoizes the read side of the survey store and the village
// hierarchy behind short TTLs. Correctness beats granularity here: any
// successful write flushes every survey-related entry, because survey
// volumes make a full recompute cheaper than one stale read reaching a
// user. The hierarchy lives in its own cache so survey writes never evict
// it.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/diewo77/topo-leves/internal/hierarchy"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/models"
)

// TTL tiers, from least to most volatile.
const (
	HierarchyTTL = 15 * time.Minute
	ListTTL      = 5 * time.Minute
	UserTTL      = time.Minute
)

// TTLs bundles the three tiers so tests can shrink them.
type TTLs struct {
	Hierarchy time.Duration
	List      time.Duration
	User      time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{Hierarchy: HierarchyTTL, List: ListTTL, User: UserTTL}
}

// HierarchyLoader rebuilds the village hierarchy from its source.
type HierarchyLoader func() (hierarchy.Hierarchy, error)

// Queries fronts the repository. Reads go through the cache; writes
// delegate to the repository and invalidate on success.
type Queries struct {
	repo    *leves.Repository
	loadGeo HierarchyLoader
	ttls    TTLs
	surveys *gocache.Cache
	geo     *gocache.Cache
}

func New(repo *leves.Repository, loadGeo HierarchyLoader) *Queries {
	return NewWithTTLs(repo, loadGeo, DefaultTTLs())
}

func NewWithTTLs(repo *leves.Repository, loadGeo HierarchyLoader, ttls TTLs) *Queries {
	return &Queries{
		repo:    repo,
		loadGeo: loadGeo,
		ttls:    ttls,
		surveys: gocache.New(ttls.List, 2*ttls.List),
		geo:     gocache.New(ttls.Hierarchy, 2*ttls.Hierarchy),
	}
}

// Typed key builders: every cached read is keyed by operation plus its
// parameter tuple, so distinct parameters never collide.

const (
	keyAll       = "leves|all"
	keyOptions   = "leves|options"
	keyHierarchy = "geo|hierarchy"
)

func keyBySuperviseur(u string) string { return "leves|superviseur|" + u }
func keyByTopographe(n string) string  { return "leves|topographe|" + n }

func keyFiltered(c leves.Criteria) string {
	fm := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return fmt.Sprintf("leves|filtered|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		fm(c.StartDate), fm(c.EndDate), c.Village, c.Region, c.Commune,
		c.Type, c.Appareil, c.Topographe, c.Superviseur)
}

// Hierarchy returns the current snapshot, rebuilding it from the source
// when the cached one has expired. Load failures are never cached: the next
// access retries the source.
func (q *Queries) Hierarchy() (hierarchy.Hierarchy, error) {
	if v, ok := q.geo.Get(keyHierarchy); ok {
		return v.(hierarchy.Hierarchy), nil
	}
	h, err := q.loadGeo()
	if err != nil {
		return hierarchy.Hierarchy{}, err
	}
	q.geo.Set(keyHierarchy, h, q.ttls.Hierarchy)
	return h, nil
}

func (q *Queries) cachedList(key string, ttl time.Duration, fetch func() ([]models.Leve, error)) ([]models.Leve, error) {
	if v, ok := q.surveys.Get(key); ok {
		return v.([]models.Leve), nil
	}
	out, err := fetch()
	if err != nil {
		return nil, err
	}
	q.surveys.Set(key, out, ttl)
	return out, nil
}

func (q *Queries) ListAll() ([]models.Leve, error) {
	return q.cachedList(keyAll, q.ttls.List, q.repo.ListAll)
}

func (q *Queries) ListBySuperviseur(username string) ([]models.Leve, error) {
	return q.cachedList(keyBySuperviseur(username), q.ttls.User, func() ([]models.Leve, error) {
		return q.repo.ListBySuperviseur(username)
	})
}

func (q *Queries) ListByTopographe(name string) ([]models.Leve, error) {
	return q.cachedList(keyByTopographe(name), q.ttls.User, func() ([]models.Leve, error) {
		return q.repo.ListByTopographe(name)
	})
}

func (q *Queries) ListFiltered(c leves.Criteria) ([]models.Leve, error) {
	return q.cachedList(keyFiltered(c), q.ttls.User, func() ([]models.Leve, error) {
		return q.repo.ListFiltered(c)
	})
}

func (q *Queries) FilterOptions() (leves.FilterOptions, error) {
	if v, ok := q.surveys.Get(keyOptions); ok {
		return v.(leves.FilterOptions), nil
	}
	opts, err := q.repo.FilterOptions()
	if err != nil {
		return leves.FilterOptions{}, err
	}
	q.surveys.Set(keyOptions, opts, q.ttls.List)
	return opts, nil
}

// GetByID is a point read; it is deliberately uncached so the edit form
// always seeds from fresh data.
func (q *Queries) GetByID(id uint) (*models.Leve, error) {
	return q.repo.GetByID(id)
}

// Writes. Each delegates to the repository and, on success, flushes every
// survey-related entry so the mutation is visible to the very next read.

func (q *Queries) Create(f leves.Fields, superviseur string) (uint, error) {
	id, err := q.repo.Create(f, superviseur)
	if err != nil {
		return 0, err
	}
	q.InvalidateSurveys()
	return id, nil
}

func (q *Queries) Update(id uint, f leves.Fields, acting, role string) error {
	if err := q.repo.Update(id, f, acting, role); err != nil {
		return err
	}
	q.InvalidateSurveys()
	return nil
}

func (q *Queries) Delete(id uint, acting, role string) error {
	if err := q.repo.Delete(id, acting, role); err != nil {
		return err
	}
	q.InvalidateSurveys()
	return nil
}

// InvalidateSurveys drops every cached survey read. The hierarchy cache is
// untouched: village data does not change when a record is written.
func (q *Queries) InvalidateSurveys() {
	q.surveys.Flush()
}
