package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/hierarchy"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/policy"
	"github.com/diewo77/topo-leves/internal/session"
)

// SaisieHandler drives the survey entry form: the cascading
// region/commune/village selectors, edit mode and submission. Every POST
// re-applies the form to the per-session draft through the state machine,
// then redirects (PRG), so each render computes its option lists from the
// current ancestor selections.
type SaisieHandler struct {
	DB      *gorm.DB
	Queries *cache.Queries
	Drafts  session.Store
	Now     func() time.Time
}

func NewSaisieHandler(db *gorm.DB, q *cache.Queries, drafts session.Store) *SaisieHandler {
	return &SaisieHandler{DB: db, Queries: q, Drafts: drafts, Now: time.Now}
}

func (h *SaisieHandler) gate(w http.ResponseWriter, r *http.Request) (*models.User, string, bool) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, "", false
	}
	if !policy.CanEnterLeves(user.Role) {
		lang := middleware.LangFrom(r)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "entry_forbidden", nil)
			return nil, "", false
		}
		renderPageStatus(w, r, http.StatusForbidden, "forbidden.html", map[string]any{"Error": i18n.T(lang, "entry_forbidden"), "User": user})
		return nil, "", false
	}
	sid, ok := auth.SessionID(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, "", false
	}
	return user, sid, true
}

func (h *SaisieHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, sid, ok := h.gate(w, r)
	if !ok {
		return
	}
	lang := middleware.LangFrom(r)
	draft := h.Drafts.Get(sid)

	data := map[string]any{
		"User":            user,
		"Flash":           popFlash(w, r),
		"Draft":           &draft,
		"TypeOptions":     models.TypeOptions,
		"AppareilOptions": models.AppareilOptions,
		"Topographes":     []string{},
		"OwnLeves":        []models.Leve{},
		"Today":           h.Now().Format("2006-01-02"),
	}

	geo, err := h.Queries.Hierarchy()
	if err != nil {
		// Never proceed with a partial hierarchy: the selectors are
		// unusable without it.
		data["Error"] = i18n.T(lang, "villages_unavailable")
		data["Regions"] = []string{hierarchy.Sentinel}
		data["Communes"] = []string{hierarchy.Sentinel}
		data["Villages"] = []string{hierarchy.Sentinel}
		renderPage(w, r, "saisie.html", data)
		return
	}
	data["Regions"] = geo.Regions()
	data["Communes"] = geo.Communes(draft.Region)
	data["Villages"] = geo.Villages(draft.Region, draft.Commune)
	data["Topographes"] = h.topographeOptions()
	data["OwnLeves"] = h.editableLeves(user)
	renderPage(w, r, "saisie.html", data)
}

// topographeOptions prefers the live distinct list; the curated fallback
// only serves when storage is unreachable.
func (h *SaisieHandler) topographeOptions() []string {
	opts, err := h.Queries.FilterOptions()
	if err != nil || len(opts.Topographes) == 0 {
		return models.DefaultTopographes
	}
	return opts.Topographes
}

func (h *SaisieHandler) editableLeves(user *models.User) []models.Leve {
	var out []models.Leve
	var err error
	if policy.IsAdmin(user.Role) {
		out, err = h.Queries.ListAll()
	} else {
		out, err = h.Queries.ListBySuperviseur(user.Username)
	}
	if err != nil {
		return nil
	}
	return out
}

func (h *SaisieHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, sid, ok := h.gate(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	lang := middleware.LangFrom(r)
	draft := h.Drafts.Get(sid)

	switch r.FormValue("action") {
	case "edit":
		h.beginEdit(w, r, user, sid, &draft, lang)
	case "cancel":
		draft.Reset()
		h.Drafts.Put(sid, draft)
	case "submit":
		h.applyForm(r, &draft, false)
		h.save(w, r, user, sid, &draft, lang)
	default:
		// A selector change: run the form through the cascade rules and
		// re-render with recomputed option sets.
		h.applyForm(r, &draft, true)
		h.Drafts.Put(sid, draft)
	}
	if httpx.WantsJSON(r) {
		return
	}
	http.Redirect(w, r, "/saisie", http.StatusSeeOther)
}

func (h *SaisieHandler) beginEdit(w http.ResponseWriter, r *http.Request, user *models.User, sid string, draft *session.Draft, lang string) {
	id, _ := strconv.Atoi(r.FormValue("id"))
	if id <= 0 {
		setFlash(w, i18n.T(lang, "leve_not_permitted"))
		return
	}
	l, err := h.Queries.GetByID(uint(id))
	if err != nil || !policy.CanEditOrDeleteLeve(user.Role, user.Username, l.Superviseur) {
		// NotFound and not-owned deliberately share one message.
		setFlash(w, i18n.T(lang, "leve_not_permitted"))
		return
	}
	draft.Reset()
	draft.SeedFromLeve(l)
	h.Drafts.Put(sid, *draft)
}

// applyForm feeds the posted values through the draft's transition rules.
// On a selector change (guardStale) the browser re-posts the descendants of
// the previous selection, so an ancestor change drops them instead of
// applying them. A submit posts a form rendered after the last change, so
// its triple is applied as-is.
func (h *SaisieHandler) applyForm(r *http.Request, draft *session.Draft, guardStale bool) {
	region := strings.TrimSpace(r.FormValue("region"))
	commune := strings.TrimSpace(r.FormValue("commune"))
	village := strings.TrimSpace(r.FormValue("village"))
	regionChanged := region != draft.Region
	communeChanged := commune != draft.Commune
	draft.SetRegion(region)
	if !guardStale || !regionChanged {
		draft.SetCommune(commune)
		if !guardStale || !communeChanged {
			draft.SetVillage(village)
		}
	}

	appareil := strings.TrimSpace(r.FormValue("appareil"))
	if appareil == "AUTRE" {
		if autre := strings.TrimSpace(r.FormValue("appareil_autre")); autre != "" {
			appareil = autre
		}
	}
	draft.Appareil = appareil
	if idx, err := strconv.Atoi(r.FormValue("type_index")); err == nil {
		draft.TypeIndex = idx
		if idx >= 0 {
			// Picking a listed option discards a legacy stored label.
			draft.TypeLabel = ""
		}
	}
	if qty, err := strconv.Atoi(r.FormValue("quantite")); err == nil {
		draft.Quantite = qty
	}
	draft.Topographe = strings.TrimSpace(r.FormValue("topographe"))
	if d, err := time.Parse("2006-01-02", r.FormValue("date")); err == nil {
		draft.Date = d
	} else if draft.Date.IsZero() {
		draft.Date = h.Now()
	}
}

func (h *SaisieHandler) save(w http.ResponseWriter, r *http.Request, user *models.User, sid string, draft *session.Draft, lang string) {
	if v := draft.Validate(h.Now()); !v.Empty() {
		// The draft is kept untouched so the user loses nothing.
		h.Drafts.Put(sid, *draft)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		setFlash(w, i18n.T(lang, "missing_fields_prefix")+": "+strings.Join(v.Fields(), ", "))
		return
	}

	f := leves.Fields{
		Date:       draft.Date,
		Village:    draft.Village,
		Region:     draft.Region,
		Commune:    draft.Commune,
		Type:       draft.TypeName(),
		Quantite:   draft.Quantite,
		Appareil:   draft.Appareil,
		Topographe: draft.Topographe,
	}

	var err error
	success := "leve_saved"
	if draft.Editing() {
		success = "leve_updated"
		err = h.Queries.Update(draft.EditID, f, user.Username, user.Role)
	} else {
		_, err = h.Queries.Create(f, user.Username)
	}
	if err != nil {
		h.Drafts.Put(sid, *draft)
		code := "storage_unavailable"
		status := http.StatusInternalServerError
		if errors.Is(err, leves.ErrUnauthorized) || errors.Is(err, leves.ErrNotFound) {
			code = "leve_not_permitted"
			status = http.StatusForbidden
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, status, code, nil)
			return
		}
		setFlash(w, i18n.T(lang, code))
		return
	}

	draft.Reset()
	h.Drafts.Put(sid, *draft)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	setFlash(w, i18n.T(lang, success))
}
