package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/featureflags"
	"github.com/gistda/internhub/internal/guard"
	"github.com/gistda/internhub/internal/handler"
	"github.com/gistda/internhub/internal/infrastructure/backend"
	"github.com/gistda/internhub/internal/infrastructure/logger"
	"github.com/gistda/internhub/internal/notify"
	"github.com/gistda/internhub/internal/observability/tracing"
	"github.com/gistda/internhub/internal/security/audit"
	"github.com/gistda/internhub/internal/security/auth"
	"github.com/gistda/internhub/internal/security/ratelimit"
	"github.com/gistda/internhub/internal/session"
	"github.com/gistda/internhub/internal/storage"
	"github.com/gistda/internhub/internal/worker"
	"github.com/gistda/internhub/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting InternHub server",
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.StorageBackend),
	)
	if cfg.IsProduction() && cfg.JWTSecret == "change-me-in-production" {
		log.Error("JWT_SECRET must be set in production")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.FromEnv("internhub", cfg.Environment), log)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Storage
	kv, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("backend", cfg.StorageBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer kv.Close()

	store := docstore.New(storage.Prefixed(kv.KV, "data:"), docstore.Config{
		Key:     cfg.DocumentKey,
		Latency: cfg.MockLatency,
		Seed:    featureflags.EnabledOr(featureflags.SeedData, true),
	}, log)

	// 5. Route table
	table, err := loadRoutes(cfg.RoutesFile)
	if err != nil {
		log.Error("failed to load route table", slog.String("file", cfg.RoutesFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Sessions and notifications
	auditLogger := audit.NewLogger(log)
	bus := notify.NewBus(32, log)

	idle := session.IdleConfig{}
	if featureflags.EnabledOr(featureflags.IdleTimeout, true) {
		idle = session.IdleConfig{Timeout: cfg.IdleTimeout, WarnBefore: cfg.IdleWarning, Tick: time.Second}
	}
	sessions := session.NewManager(store, storage.Prefixed(kv.KV, "prefs:"), bus, session.ManagerConfig{
		Idle:      idle,
		RevokeFor: cfg.TokenTTL,
		OnExpire: func(sessionID, userID string) {
			auditLogger.LogLogout(context.Background(), userID, sessionID, "idle_timeout")
		},
	}, log)

	// 7. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "internhub", cfg.TokenTTL)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// 8. Router
	router := handler.NewRouter(handler.Deps{
		Store:    store,
		Sessions: sessions,
		Guard:    guard.New(table, log),
		Tokens:   tokenManager,
		Limiter:  rateLimiter,
		Audit:    auditLogger,
		Bus:      bus,
		Checks: map[string]handler.CheckFunc{
			"storage": kv.Ping,
			"docstore": func(ctx context.Context) error {
				_, err := store.Snapshot(ctx)
				return err
			},
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	// 9. Background maintenance
	sweeper := worker.NewSweeper(time.Minute, log, worker.Task{
		Name: "session_revocations",
		Run: func(context.Context) (int, error) {
			return sessions.Sweep(), nil
		},
	})
	go sweeper.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(router, "internhub"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
		slog.Bool("idle_timeout", idle.Enabled()),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop sweeper
	sessions.Shutdown()
	bus.Close()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func loadRoutes(file string) (*guard.Table, error) {
	if file == "" {
		return guard.NewTable(guard.DefaultRoutes())
	}
	return guard.LoadTable(file)
}
