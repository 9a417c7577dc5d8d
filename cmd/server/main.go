package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/topo-leves/internal/cache"
	"github.com/diewo77/topo-leves/internal/config"
	"github.com/diewo77/topo-leves/internal/db"
	"github.com/diewo77/topo-leves/internal/hierarchy"
	"github.com/diewo77/topo-leves/internal/leves"
	"github.com/diewo77/topo-leves/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if migrateOnlyFlag != nil && *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("Erreur connexion DB: %v", err)
	}
	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)

	repo := leves.NewRepository(dbConn)
	queries := cache.New(repo, func() (hierarchy.Hierarchy, error) {
		return hierarchy.LoadFile(cfg.VillagesFile)
	})
	// A missing workbook is not fatal: the entry form shows the error and
	// the cache retries on the next request.
	if _, err := queries.Hierarchy(); err != nil {
		log.Printf("villages: %v", err)
	}

	app := server.New(dbConn, queries)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: app.Router()}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
