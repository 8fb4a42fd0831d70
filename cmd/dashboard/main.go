package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vammshi2/Roxiler-Systems/internal/config"
	apphttp "github.com/Vammshi2/Roxiler-Systems/internal/http"
	applog "github.com/Vammshi2/Roxiler-Systems/internal/log"
	"github.com/Vammshi2/Roxiler-Systems/internal/seed"
	"github.com/Vammshi2/Roxiler-Systems/internal/services"
	"github.com/Vammshi2/Roxiler-Systems/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	importer := seed.NewImporter(repo, cfg.SeedURL, cfg.SeedTimeout, cfg.SeedBatchSize)

	// One-time import: populate the store from the external feed on first
	// boot. Upsert semantics keep forced re-runs safe.
	seedCtx, seedCancel := context.WithTimeout(context.Background(), cfg.SeedTimeout+time.Minute)
	if cfg.ForceSeed {
		if _, err := importer.Run(seedCtx); err != nil {
			logger.Error("Forced seed failed", "error", err, "url", cfg.SeedURL)
			seedCancel()
			os.Exit(1)
		}
	} else if _, err := importer.RunIfEmpty(seedCtx); err != nil {
		logger.Error("First-boot seed failed", "error", err, "url", cfg.SeedURL)
		seedCancel()
		os.Exit(1)
	}
	seedCancel()

	svc := services.NewDashboardService(repo)
	srv := apphttp.NewServer(":"+cfg.Port, svc, importer, apphttp.Options{
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting dashboard server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
