package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/cache"
	"github.com/JonMunkholm/datacleanser/internal/config"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
	"github.com/JonMunkholm/datacleanser/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer logCloser.Close()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL,
		"cache", cfg.Cache.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	store, err := cache.Open(ctx, cache.Options{
		Backend:     cfg.Cache.Backend,
		RedisURL:    cfg.Cache.RedisURL,
		DatabaseURL: cfg.Cache.DatabaseURL,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		slog.Error("failed to open cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	identity := auth.NewIdentity(cfg.Identity.URL, cfg.Identity.AnonKey, cfg.API.Timeout)
	sessions := auth.NewProvider(identity, cfg.Session.TTL)
	defer sessions.Close()

	unsubscribe := sessions.Subscribe(func(e auth.Event, s *auth.Session) {
		slog.Info("auth state changed", "event", e.String(), "user_id", s.UserID)
	})
	defer unsubscribe()

	service := core.NewService(store, core.Options{
		MaxFileSize:   cfg.Upload.MaxFileSize.Int64(),
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWaitTime:   cfg.Upload.MaxWaitTime,
		Retention:     cfg.Upload.Retention,
	})

	client := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))
	server := web.NewServer(cfg, service, sessions, client)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let uploads already forwarded to the backend finish.
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		return
	}
	slog.Info("server stopped")
}
