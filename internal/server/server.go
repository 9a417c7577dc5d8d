// Package server assembles the HTTP surface: the mux, the middleware chain
// and the health endpoints.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/topo-leves/auth"
	"github.com/diewo77/topo-leves/httpx"
	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/handlers"
	"github.com/diewo77/topo-leves/internal/middleware"
	"github.com/diewo77/topo-leves/internal/models"
	"github.com/diewo77/topo-leves/internal/session"
	"github.com/diewo77/topo-leves/view"
)

type App struct {
	DB      *gorm.DB
	Queries *cache.Queries
	Drafts  *session.MemoryStore
}

func New(db *gorm.DB, queries *cache.Queries) *App {
	view.SetLangResolver(middleware.LangFrom)
	return &App{DB: db, Queries: queries, Drafts: session.NewMemoryStore()}
}

// Router builds the full handler tree. Sessions of deleted accounts are
// rejected by the verifier, so a removed user cannot keep acting on a stale
// cookie.
func (a *App) Router() http.Handler {
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var n int64
		if err := a.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&n).Error; err != nil {
			return false
		}
		return n == 1
	})

	mux := http.NewServeMux()

	authH := handlers.NewAuthHandler(a.DB)
	authH.Register(mux)

	account := handlers.NewAccountHandler(a.DB, a.Queries)
	saisie := handlers.NewSaisieHandler(a.DB, a.Queries, a.Drafts)
	suivi := handlers.NewSuiviHandler(a.DB, a.Queries)
	dashboard := handlers.NewDashboardHandler(a.DB, a.Queries)
	admin := handlers.NewAdminHandler(a.DB, a.Queries)

	private := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	mux.Handle("/compte", private(account.Show))
	mux.Handle("/compte/password", private(account.ChangePassword))
	mux.Handle("/saisie", private(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			saisie.Submit(w, r)
			return
		}
		saisie.Show(w, r)
	}))
	mux.Handle("/suivi", private(suivi.Show))
	mux.Handle("/suivi/delete", private(suivi.Delete))
	mux.Handle("/dashboard", private(dashboard.Show))
	mux.Handle("/admin/users", private(admin.Users))
	mux.Handle("/admin/users/delete", private(admin.DeleteUser))
	mux.Handle("/admin/leves", private(admin.Leves))
	mux.Handle("/admin/leves/delete", private(admin.DeleteLeve))
	mux.Handle("/admin/export", private(admin.Export))

	mux.HandleFunc("/health", a.health)
	mux.HandleFunc("/healthz", a.health)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if _, ok := auth.ParseSession(r); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	return withRecover(withLogging(middleware.Prefs(auth.Middleware(mux))))
}

// health reports liveness plus a storage round-trip so load balancers can
// tell a hung database apart from a hung process.
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := a.DB.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httpx.JSON(w, code, map[string]string{"status": status})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic sur %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
