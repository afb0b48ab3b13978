package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/transitdir/internal/config"
	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/logging"
	"github.com/JonMunkholm/transitdir/internal/store"
	"github.com/JonMunkholm/transitdir/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	backend, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	seed, err := cfg.SeedTokens()
	if err != nil {
		slog.Error("failed to load tokens", "error", err)
		os.Exit(1)
	}
	tokens := core.NewTokenSet(seed...)
	if n, err := tokens.Seed(ctx, backend); err != nil {
		slog.Error("failed to read stored tokens", "error", err)
		os.Exit(1)
	} else {
		slog.Info("tokens loaded", "configured", len(seed), "stored", n, "total", tokens.Len())
	}

	service, err := core.NewService(core.ServiceConfig{
		Store:   backend,
		Tokens:  tokens,
		Limiter: core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWait),
		Logger:  logger,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("kinds registered", "count", len(core.All()))

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running imports to finish (with timeout)
		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
