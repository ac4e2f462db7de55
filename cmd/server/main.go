package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/db"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Flightdeck starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"cache_backend", cfg.CacheBackend,
	)

	if _, err := db.InitORM(cfg.DBDriver, cfg.DBDSN); err != nil {
		logging.Error("Failed to connect to database (GORM)", "error", err.Error())
		log.Fatalf("Failed to connect to database (GORM): %v", err)
	}
	if _, err := db.InitSQLX(cfg.DBDriver, cfg.DBDSN); err != nil {
		logging.Error("Failed to connect to database (sqlx)", "error", err.Error())
		log.Fatalf("Failed to connect to database (sqlx): %v", err)
	}
	logging.Info("Database connected", "driver", cfg.DBDriver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upSince := time.Now()
	router, err := routes.RegisterRoutes(ctx, cfg, upSince)
	if err != nil {
		logging.Error("Failed to initialize router", "error", err.Error())
		log.Fatalf("Failed to initialize router: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logging.Info("Server starting", "addr", cfg.ListenAddr, "environment", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Server failed", "error", err.Error())
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", "error", err.Error())
	}
	logging.Info("Server stopped")
}
