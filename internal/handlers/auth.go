package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/i18n"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/logout", h.logout)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if u, ok := currentUser(h.DB, r); ok && u != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderPage(w, r, "login.html", map[string]any{"Flash": popFlash(w, r)})
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
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	var user models.User
	err := h.DB.Where("username = ?", username).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "login_failed", nil)
			return
		}
		renderPage(w, r, "login.html", map[string]any{"Error": i18n.T(middleware.LangFrom(r), "login_failed")})
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "username": user.Username, "role": models.NormalizeRole(user.Role)})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderPage(w, r, "signup.html", nil)
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
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	lang := middleware.LangFrom(r)

	if username == "" || password == "" {
		renderPage(w, r, "signup.html", map[string]any{"Error": i18n.T(lang, "required")})
		return
	}
	if password != confirm {
		renderPage(w, r, "signup.html", map[string]any{"Error": i18n.T(lang, "password_mismatch")})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	// Self-registration always lands on the base role; only an
	// administrator can grant more.
	user := models.User{Username: username, Password: string(hash), Phone: phone, Role: models.RoleTopographe}
	if email != "" {
		user.Email = &email
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "account_exists", nil)
			return
		}
		renderPage(w, r, "signup.html", map[string]any{"Error": i18n.T(lang, "account_exists")})
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "username": user.Username})
		return
	}
	setFlash(w, i18n.T(lang, "account_created"))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
