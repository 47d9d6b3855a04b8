package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/background"
	"github.com/apollotyres/console/internal/config"
	"github.com/apollotyres/console/internal/database"
	"github.com/apollotyres/console/internal/handlers"
	middlewareCustom "github.com/apollotyres/console/internal/middleware"
	"github.com/apollotyres/console/internal/routes"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/tabs"
	"github.com/apollotyres/console/internal/upstream"
	"github.com/apollotyres/console/internal/views"
	pkghttp "github.com/apollotyres/console/pkg/http"
	pkglogger "github.com/apollotyres/console/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("session_backend", cfg.Session.Backend),
		slog.String("upstream", cfg.Upstream.BaseURL),
	)

	// Session backend
	backend, health, closer, err := openSessionBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to open session backend", slog.Any("error", err))
		os.Exit(1)
	}
	defer closer.Close()

	auditLogger := pkglogger.NewAuditLogger(logger)
	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	registry := tabs.NewRegistry(backend, api, cfg.UI.TimeZone, logger, auditLogger)
	flow := auth.NewFlow(api, cfg.UI.RedirectFallbackDelay, logger, auditLogger)

	renderer, err := views.NewRenderer()
	if err != nil {
		logger.Error("failed to parse views", slog.Any("error", err))
		os.Exit(1)
	}

	ipConfig, invalid := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	for _, cidr := range invalid {
		logger.Warn("ignoring invalid trusted proxy range", slog.String("cidr", cidr))
	}

	cookies := auth.CookieConfig{Secure: cfg.Server.CookieSecure, SameSite: "lax"}
	console := handlers.NewConsoleHandler(registry, flow, renderer, cookies, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.Metrics)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)

	routes.RegisterRoutes(router, console, health,
		middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Server.LoginRequestsPerMinute, IPConfig: ipConfig}, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start idle tab sweeper
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	cleanupManager := background.NewCleanupManager(registry, logger, cfg.Session.SweepInterval, cfg.Session.TabIdleTTL)
	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()
	flow.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openSessionBackend connects the configured session backend and returns it
// with its health check and a closer for shutdown
func openSessionBackend(cfg *config.Config, logger *slog.Logger) (session.Backend, handlers.HealthCheck, io.Closer, error) {
	switch cfg.Session.Backend {
	case "postgres":
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return session.NewPostgresBackend(db.Pool), db.HealthCheck, closerFunc(func() error {
			db.Close()
			return nil
		}), nil

	case "sqlite":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.OpenSQLite(ctx, cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("sqlite session store opened", slog.String("path", cfg.Session.SQLitePath))
		return session.NewSQLiteBackend(db), db.PingContext, db, nil

	default:
		logger.Warn("sessions are kept in memory and are lost on restart")
		return session.NewMemoryBackend(), nil, closerFunc(func() error { return nil }), nil
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
