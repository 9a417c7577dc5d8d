package handlers

import (
	"net/http"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
)

// DashboardHandler serves the reporting page: the global record table,
// filterable on every dimension, with aggregate totals per region, type and
// topographe.
type DashboardHandler struct {
	DB      *gorm.DB
	Queries *cache.Queries
}

func NewDashboardHandler(db *gorm.DB, q *cache.Queries) *DashboardHandler {
	return &DashboardHandler{DB: db, Queries: q}
}

// criteriaFromQuery maps query parameters onto filter criteria. Absent or
// empty parameters stay unset, so a bare request means "everything".
func criteriaFromQuery(r *http.Request) leves.Criteria {
	q := r.URL.Query()
	c := leves.Criteria{
		Village:     q.Get("village"),
		Region:      q.Get("region"),
		Commune:     q.Get("commune"),
		Type:        q.Get("type"),
		Appareil:    q.Get("appareil"),
		Topographe:  q.Get("topographe"),
		Superviseur: q.Get("superviseur"),
	}
	if d, err := time.Parse("2006-01-02", q.Get("du")); err == nil {
		c.StartDate = &d
	}
	if d, err := time.Parse("2006-01-02", q.Get("au")); err == nil {
		c.EndDate = &d
	}
	return c
}

type totalRow struct {
	Label string
	Count int
	Sum   int
}

// tally groups records by a label and sums quantities, largest first.
func tally(list []models.Leve, label func(models.Leve) string) []totalRow {
	byLabel := map[string]*totalRow{}
	for _, l := range list {
		k := label(l)
		if k == "" {
			continue
		}
		row, ok := byLabel[k]
		if !ok {
			row = &totalRow{Label: k}
			byLabel[k] = row
		}
		row.Count++
		row.Sum += l.Quantite
	}
	out := make([]totalRow, 0, len(byLabel))
	for _, row := range byLabel {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sum != out[j].Sum {
			return out[i].Sum > out[j].Sum
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	lang := middleware.LangFrom(r)

	crit := criteriaFromQuery(r)
	list, err := h.Queries.ListFiltered(crit)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
			return
		}
		renderPage(w, r, "dashboard.html", map[string]any{
			"User":          user,
			"Error":         i18n.T(lang, "storage_unavailable"),
			"Leves":         []models.Leve{},
			"Options":       leves.FilterOptions{},
			"Query":         r.URL.Query(),
			"ByRegion":      []totalRow{},
			"ByType":        []totalRow{},
			"ByTopographe":  []totalRow{},
			"BySuperviseur": []totalRow{},
		})
		return
	}

	var total int
	for _, l := range list {
		total += l.Quantite
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"leves": list,
			"total": total,
			"count": len(list),
		})
		return
	}

	opts, optErr := h.Queries.FilterOptions()
	if optErr != nil {
		opts = leves.FilterOptions{}
	}
	renderPage(w, r, "dashboard.html", map[string]any{
		"User":          user,
		"Flash":         popFlash(w, r),
		"Leves":         list,
		"Total":         total,
		"Count":         len(list),
		"Options":       opts,
		"Query":         r.URL.Query(),
		"ByRegion":      tally(list, func(l models.Leve) string { return l.Region }),
		"ByType":        tally(list, func(l models.Leve) string { return l.Type }),
		"ByTopographe":  tally(list, func(l models.Leve) string { return l.Topographe }),
		"BySuperviseur": tally(list, func(l models.Leve) string { return l.Superviseur }),
	})
}
