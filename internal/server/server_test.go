package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/hierarchy"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/models"
)

func setupApp(t *testing.T) (*App, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Leve{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	q := cache.New(leves.NewRepository(db), func() (hierarchy.Hierarchy, error) {
		return hierarchy.Build(nil), nil
	})
	return New(db, q), db
}

func TestHealthReportsOK(t *testing.T) {
	app, _ := setupApp(t)
	router := app.Router()

	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
	}
}

func TestPrivateRoutesRejectAnonymousJSON(t *testing.T) {
	app, _ := setupApp(t)
	router := app.Router()

	for _, path := range []string{"/saisie", "/suivi", "/dashboard", "/admin/users"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, w.Code)
		}
	}
}

// A session cookie belonging to a deleted account is dead. Deleting a user
// must revoke their access immediately, not at cookie expiry.
func TestDeletedUserSessionRevoked(t *testing.T) {
	app, db := setupApp(t)
	router := app.Router()

	u := models.User{Username: "bob", Password: "hash", Role: models.RoleSuperviseur}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, u.ID)
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/suivi", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("live session refused: %d", w.Code)
	}

	if err := db.Delete(&models.User{}, u.ID).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale session still accepted: %d", w.Code)
	}
}

func TestRootRedirects(t *testing.T) {
	app, _ := setupApp(t)
	router := app.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous root: %d -> %s", w.Code, w.Header().Get("Location"))
	}
}
