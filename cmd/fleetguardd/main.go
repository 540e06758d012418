package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetguard/fleetguard/config"
	"github.com/fleetguard/fleetguard/internal/api"
	"github.com/fleetguard/fleetguard/internal/auth"
	"github.com/fleetguard/fleetguard/internal/csvimport"
	"github.com/fleetguard/fleetguard/internal/db"
	"github.com/fleetguard/fleetguard/internal/deadline"
	"github.com/fleetguard/fleetguard/internal/metrics"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/usage"
)

func main() {
	logger := log.New(os.Stdout, "fleetguard ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret (or JWT_SECRET) must be configured")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	authSvc := auth.NewService(appStore, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	aggregator := metrics.New(gormDB)
	usageSvc := usage.NewService(appStore)
	importer := csvimport.New(appStore)

	// Deadline alert scanner runs in the background; it refuses to start
	// when VAPID keys are missing.
	deadlineSvc := deadline.NewService(cfg, gormDB)
	go deadlineSvc.Run(ctx)

	handler := api.NewHandler(appStore, aggregator, usageSvc, authSvc, importer, cfg.Push.PublicKey)
	router := api.NewRouter(&cfg.Server, handler, authSvc)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
