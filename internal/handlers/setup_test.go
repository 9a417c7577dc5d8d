package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/hierarchy"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/session"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Leve{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testHierarchy() hierarchy.Hierarchy {
	return hierarchy.Build([]hierarchy.Row{
		{Region: "Kaolack", Commune: "Ndiaffate", Village: "Keur Madiabel"},
		{Region: "Kaolack", Commune: "Ndiaffate", Village: "Keur Socé"},
		{Region: "Fatick", Commune: "Diakhao", Village: "Mbellacadiao"},
	})
}

func setupQueries(t *testing.T, db *gorm.DB) *cache.Queries {
	t.Helper()
	repo := leves.NewRepository(db)
	return cache.New(repo, func() (hierarchy.Hierarchy, error) {
		return testHierarchy(), nil
	})
}

func createTestUser(t *testing.T, db *gorm.DB, username, password, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: username, Password: string(hash), Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func sessionCookie(uid uint) *http.Cookie {
	w := httptest.NewRecorder()
	auth.CreateSession(w, uid)
	return w.Result().Cookies()[0]
}

// app wires the handler under test behind the session middleware, the way
// the real router does.
func testApp(db *gorm.DB, q *cache.Queries) (http.Handler, *session.MemoryStore) {
	drafts := session.NewMemoryStore()
	mux := http.NewServeMux()
	NewAuthHandler(db).Register(mux)
	saisie := NewSaisieHandler(db, q, drafts)
	mux.HandleFunc("/saisie", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			saisie.Submit(w, r)
			return
		}
		saisie.Show(w, r)
	})
	suivi := NewSuiviHandler(db, q)
	mux.HandleFunc("/suivi", suivi.Show)
	mux.HandleFunc("/suivi/delete", suivi.Delete)
	dashboard := NewDashboardHandler(db, q)
	mux.HandleFunc("/dashboard", dashboard.Show)
	admin := NewAdminHandler(db, q)
	mux.HandleFunc("/admin/users", admin.Users)
	mux.HandleFunc("/admin/users/delete", admin.DeleteUser)
	mux.HandleFunc("/admin/leves", admin.Leves)
	mux.HandleFunc("/admin/leves/delete", admin.DeleteLeve)
	mux.HandleFunc("/admin/export", admin.Export)
	return auth.Middleware(mux), drafts
}
