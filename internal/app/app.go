// Package app wires configuration, storage, services, and the HTTP server
// into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	customerrepo "github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/customer"
	linkrepo "github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/link"
	userrepo "github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/user"
	"github.com/crawlingsloth/blvq-backend/internal/adapter/provider/ewity"
	authpkg "github.com/crawlingsloth/blvq-backend/internal/auth"
	"github.com/crawlingsloth/blvq-backend/internal/config"
	authsvc "github.com/crawlingsloth/blvq-backend/internal/service/auth"
	"github.com/crawlingsloth/blvq-backend/internal/service/balance"
	"github.com/crawlingsloth/blvq-backend/internal/service/catalog"
	"github.com/crawlingsloth/blvq-backend/internal/service/directory"
	"github.com/crawlingsloth/blvq-backend/internal/service/resolver"
	"github.com/crawlingsloth/blvq-backend/internal/transport/middleware"
	"github.com/crawlingsloth/blvq-backend/internal/transport/rest"
)

// Run is the server entry point. It loads configuration, connects to the
// database, applies migrations, wires the services and HTTP handlers, and
// serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := migrateUp(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	handler, cleanup := buildHandler(cfg, logger, pool)
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// buildHandler assembles repositories, services, handlers, and the
// middleware chain into the root http.Handler. The returned cleanup stops
// background workers owned by the handler stack.
func buildHandler(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool) (http.Handler, func()) {
	links := linkrepo.New(pool)
	customers := customerrepo.New(pool)
	users := userrepo.New(pool)

	pos := ewity.NewClient(cfg.Ewity, logger)
	jwtMgr := authpkg.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	resolverSvc := resolver.NewService(logger, pos, cfg.Ewity.ScanPageLimit)
	authService := authsvc.NewService(logger, users, jwtMgr, cfg.Auth.PasswordHashCost)
	directoryService := directory.NewService(logger, links)
	catalogService := catalog.NewService(logger, pos, customers, cfg.Cache.TTL, cfg.Ewity.SyncWorkers)
	balanceService := balance.NewService(logger, resolverSvc, links, customers)

	authHandler := rest.NewAuthHandler(authService, logger)
	adminHandler := rest.NewAdminHandler(directoryService, catalogService, logger)
	balanceHandler := rest.NewBalanceHandler(balanceService, logger)
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())

	limiter := middleware.NewRateLimiter(time.Minute)

	base := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)
	admin := middleware.Chain(middleware.RequireAuth(authService))
	public := middleware.Chain(limiter.Limit(60))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.Handle("POST /api/admin/login", public(http.HandlerFunc(authHandler.Login)))

	mux.Handle("GET /api/admin/customers/all", admin(http.HandlerFunc(adminHandler.ListCustomers)))
	mux.Handle("GET /api/admin/customers/search", admin(http.HandlerFunc(adminHandler.SearchCustomers)))
	mux.Handle("POST /api/admin/customers/sync", admin(http.HandlerFunc(adminHandler.SyncCustomers)))
	mux.Handle("GET /api/admin/customers/links", admin(http.HandlerFunc(adminHandler.ListLinks)))
	mux.Handle("POST /api/admin/customers/link", admin(http.HandlerFunc(adminHandler.CreateLink)))
	mux.Handle("DELETE /api/admin/customers/link/{id}", admin(http.HandlerFunc(adminHandler.DeleteLink)))

	mux.Handle("GET /api/customer/{uuid}", public(http.HandlerFunc(balanceHandler.Get)))

	return base(mux), limiter.Stop
}

// migrateUp applies pending goose migrations. goose needs database/sql, so a
// single connection is borrowed from the pgx pool for the duration.
func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(migrationsDir()))
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied", slog.String("source", r.Source.Path))
	}
	return nil
}

func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "migrations"
}
