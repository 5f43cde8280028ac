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

	"github.com/RichardAwuor/Nyota-KE-sub000/config"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/api"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/db"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/engine"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/notification"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "nyotad ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	notifier := notification.NewPool(cfg.Notifier.PoolSize, nil)
	notifier.Start(ctx)

	eng := engine.New(appStore, notifier, engine.Options{
		SelectionWindow: cfg.Allocation.SelectionWindow(),
		OfferWindow:     cfg.Allocation.OfferWindow(),
		MaxMatches:      cfg.Allocation.MaxMatches,
	})
	logger.Println("allocation engine ready")

	router := api.NewRouter(eng, &cfg.Server)
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
