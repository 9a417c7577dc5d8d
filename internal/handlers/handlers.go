// Package handlers contains the HTTP surface: login and account pages, the
// survey entry form, the tracking and admin pages. Handlers follow a
// dual-format convention: HTML with PRG redirects and flash cookies for
// browsers, JSON for API clients.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/view"
)

const flashCookie = "flash"

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/"})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	if dec, derr := url.QueryUnescape(c.Value); derr == nil {
		return dec
	}
	return c.Value
}

// currentUser resolves the authenticated account. The role is normalized
// here once so policy checks downstream never see the legacy alias.
func currentUser(db *gorm.DB, r *http.Request) (*models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		if parsed, ok2 := auth.ParseSession(r); ok2 {
			uid = parsed
		}
	}
	if uid == 0 {
		return nil, false
	}
	var u models.User
	if err := db.First(&u, uid).Error; err != nil {
		return nil, false
	}
	u.Role = models.NormalizeRole(u.Role)
	return &u, true
}

// renderPageStatus renders a page under a non-200 status. The content type
// must go out before WriteHeader, or the later header set inside the
// renderer is silently dropped.
func renderPageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	renderPage(w, r, name, data)
}

func renderPage(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = time.Now().Year()
	}
	if err := view.Render(w, r, name, data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template render error")); werr != nil {
			_ = werr
		}
	}
}
