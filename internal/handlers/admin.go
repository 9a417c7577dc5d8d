package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/policy"
	"github.com/diewo77/topo-leves/validation"
)

// AdminHandler serves the administration pages: account management, the
// global survey table with unrestricted deletion, and the XLSX export.
type AdminHandler struct {
	DB      *gorm.DB
	Queries *cache.Queries
}

func NewAdminHandler(db *gorm.DB, q *cache.Queries) *AdminHandler {
	return &AdminHandler{DB: db, Queries: q}
}

func (h *AdminHandler) gate(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	if !policy.CanManageAccounts(user.Role) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return nil, false
		}
		renderPageStatus(w, r, http.StatusForbidden, "forbidden.html", map[string]any{"User": user})
		return nil, false
	}
	return user, true
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	user, ok := h.gate(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		h.createUser(w, r)
		return
	}

	var users []models.User
	if err := h.DB.Order("username").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
		return
	}
	for i := range users {
		users[i].Role = models.NormalizeRole(users[i].Role)
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}
	renderPage(w, r, "admin_users.html", map[string]any{
		"User":  user,
		"Flash": popFlash(w, r),
		"Users": users,
		"Roles": []string{models.RoleTopographe, models.RoleSuperviseur, models.RoleAdministrateur},
	})
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LangFrom(r)
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := models.NormalizeRole(strings.TrimSpace(r.FormValue("role")))

	v := validation.Violations{}
	validation.Required("username", username, v)
	validation.Required("password", password, v)
	validation.Required("role", role, v)
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		setFlash(w, i18n.T(lang, "missing_fields_prefix")+": "+strings.Join(v.Fields(), ", "))
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
		return
	}
	u := models.User{Username: username, Password: string(hash), Role: role, Phone: strings.TrimSpace(r.FormValue("phone"))}
	if email := strings.TrimSpace(r.FormValue("email")); email != "" {
		u.Email = &email
	}
	if err := h.DB.Create(&u).Error; err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "account_exists", nil)
			return
		}
		setFlash(w, i18n.T(lang, "account_exists"))
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, u)
		return
	}
	setFlash(w, i18n.T(lang, "account_created"))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gate(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	lang := middleware.LangFrom(r)
	id, _ := strconv.Atoi(r.FormValue("id"))

	var target models.User
	if err := h.DB.First(&target, id).Error; err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	if !policy.CanDeleteUserAccount(target.Username) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "admin_protected", nil)
			return
		}
		setFlash(w, i18n.T(lang, "admin_protected"))
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	if err := h.DB.Delete(&target).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	setFlash(w, i18n.T(lang, "user_deleted"))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// Leves serves the full record table to administrators, with the same
// filters as the dashboard and deletion of any record.
func (h *AdminHandler) Leves(w http.ResponseWriter, r *http.Request) {
	user, ok := h.gate(w, r)
	if !ok {
		return
	}
	lang := middleware.LangFrom(r)

	list, err := h.Queries.ListFiltered(criteriaFromQuery(r))
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
			return
		}
		renderPage(w, r, "admin_leves.html", map[string]any{
			"User":    user,
			"Error":   i18n.T(lang, "storage_unavailable"),
			"Leves":   []models.Leve{},
			"Options": leves.FilterOptions{},
			"Query":   r.URL.Query(),
		})
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"leves": list})
		return
	}
	opts, optErr := h.Queries.FilterOptions()
	if optErr != nil {
		opts = leves.FilterOptions{}
	}
	renderPage(w, r, "admin_leves.html", map[string]any{
		"User":    user,
		"Flash":   popFlash(w, r),
		"Leves":   list,
		"Options": opts,
		"Query":   r.URL.Query(),
	})
}

func (h *AdminHandler) DeleteLeve(w http.ResponseWriter, r *http.Request) {
	user, ok := h.gate(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	lang := middleware.LangFrom(r)
	id, _ := strconv.Atoi(r.FormValue("id"))

	err := h.Queries.Delete(uint(id), user.Username, user.Role)
	switch {
	case err == nil:
		setFlash(w, i18n.T(lang, "leve_deleted"))
	case errors.Is(err, leves.ErrNotFound):
		setFlash(w, i18n.T(lang, "leve_not_permitted"))
	default:
		setFlash(w, i18n.T(lang, "storage_unavailable"))
	}
	http.Redirect(w, r, "/admin/leves", http.StatusSeeOther)
}

var exportHeader = []string{"ID", "Date", "Village", "Région", "Commune", "Type", "Quantité", "Appareil", "Topographe", "Superviseur"}

// Export streams the (optionally filtered) record table as an XLSX
// workbook, one row per leve.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gate(w, r); !ok {
		return
	}
	list, err := h.Queries.ListFiltered(criteriaFromQuery(r))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_unavailable", nil)
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
			return
		}
	}
	for row, l := range list {
		values := []any{l.ID, l.Date.Format("2006-01-02"), l.Village, l.Region, l.Commune, l.Type, l.Quantite, l.Appareil, l.Topographe, l.Superviseur}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leves.xlsx"))
	if err := f.Write(w); err != nil {
		// headers already sent; nothing to salvage
		_ = err
	}
}
