// Command sync walks the full upstream POS customer listing and rewrites the
// local snapshot table. It is intended to be invoked by an external cron job,
// not as an in-process goroutine; the admin API exposes the same operation
// for on-demand runs.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	customerrepo "github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/customer"
	"github.com/crawlingsloth/blvq-backend/internal/adapter/provider/ewity"
	"github.com/crawlingsloth/blvq-backend/internal/app"
	"github.com/crawlingsloth/blvq-backend/internal/config"
	"github.com/crawlingsloth/blvq-backend/internal/service/catalog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	customers := customerrepo.New(pool)
	pos := ewity.NewClient(cfg.Ewity, logger)
	catalogService := catalog.NewService(logger, pos, customers, cfg.Cache.TTL, cfg.Ewity.SyncWorkers)

	result, err := catalogService.Sync(ctx)
	if err != nil {
		logger.Error("sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sync completed",
		slog.Int("pages", result.Pages),
		slog.Int("customers", result.Customers),
		slog.Int64("removed", result.Removed),
		slog.Duration("duration", result.Duration),
	)
}
