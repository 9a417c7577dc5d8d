package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
)

// AccountHandler serves "Mon Compte": own info, personal survey counts and
// password change.
type AccountHandler struct {
	DB      *gorm.DB
	Queries *cache.Queries
}

func NewAccountHandler(db *gorm.DB, q *cache.Queries) *AccountHandler {
	return &AccountHandler{DB: db, Queries: q}
}

func (h *AccountHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	data := map[string]any{"User": user, "Flash": popFlash(w, r)}
	// A topographe sees the records filed under their own name; entry
	// roles see the records they own.
	if user.Role == models.RoleTopographe {
		if own, err := h.Queries.ListByTopographe(user.Username); err == nil {
			data["OwnCount"] = len(own)
		}
	} else {
		if own, err := h.Queries.ListBySuperviseur(user.Username); err == nil {
			data["OwnCount"] = len(own)
		}
	}
	renderPage(w, r, "account.html", data)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	lang := middleware.LangFrom(r)
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		setFlash(w, i18n.T(lang, "login_failed"))
		http.Redirect(w, r, "/compte", http.StatusSeeOther)
		return
	}
	if next == "" || next != confirm {
		setFlash(w, i18n.T(lang, "password_mismatch"))
		http.Redirect(w, r, "/compte", http.StatusSeeOther)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password", string(hash)).Error; err != nil {
		setFlash(w, i18n.T(lang, "storage_unavailable"))
		http.Redirect(w, r, "/compte", http.StatusSeeOther)
		return
	}
	setFlash(w, i18n.T(lang, "password_changed"))
	http.Redirect(w, r, "/compte", http.StatusSeeOther)
}
