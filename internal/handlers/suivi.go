package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/policy"
)

// SuiviHandler serves the personal tracking page: the user's own records,
// newest first, with deletion of the ones they are allowed to remove.
type SuiviHandler struct {
	DB      *gorm.DB
	Queries *cache.Queries
}

func NewSuiviHandler(db *gorm.DB, q *cache.Queries) *SuiviHandler {
	return &SuiviHandler{DB: db, Queries: q}
}

// ownLeves returns the records this user tracks: admins see everything,
// supervisors what they entered, topographes what was measured by them.
func (h *SuiviHandler) ownLeves(user *models.User) ([]models.Leve, error) {
	switch {
	case policy.IsAdmin(user.Role):
		return h.Queries.ListAll()
	case user.Role == models.RoleTopographe:
		return h.Queries.ListByTopographe(user.Username)
	default:
		return h.Queries.ListBySuperviseur(user.Username)
	}
}

func (h *SuiviHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	lang := middleware.LangFrom(r)

	list, err := h.ownLeves(user)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
			return
		}
		renderPage(w, r, "suivi.html", map[string]any{
			"User":      user,
			"Error":     i18n.T(lang, "storage_unavailable"),
			"Leves":     []models.Leve{},
			"Total":     0,
			"CanDelete": false,
		})
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"leves": list})
		return
	}

	var total int
	for _, l := range list {
		total += l.Quantite
	}
	renderPage(w, r, "suivi.html", map[string]any{
		"User":      user,
		"Flash":     popFlash(w, r),
		"Leves":     list,
		"Total":     total,
		"CanDelete": policy.CanEnterLeves(user.Role),
	})
}

func (h *SuiviHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	lang := middleware.LangFrom(r)
	id, _ := strconv.Atoi(r.FormValue("id"))
	if id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	err := h.Queries.Delete(uint(id), user.Username, user.Role)
	switch {
	case err == nil:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		setFlash(w, i18n.T(lang, "leve_deleted"))
	case errors.Is(err, leves.ErrUnauthorized), errors.Is(err, leves.ErrNotFound):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "leve_not_permitted", nil)
			return
		}
		setFlash(w, i18n.T(lang, "leve_not_permitted"))
	default:
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
			return
		}
		setFlash(w, i18n.T(lang, "storage_unavailable"))
	}
	http.Redirect(w, r, "/suivi", http.StatusSeeOther)
}
