// Command bootstrap creates an admin-console account. There is no
// self-service registration, so the first account (and any later ones) are
// provisioned with this tool.
//
// Flags:
//
//	--username  account name (required)
//	--password  account password (required, min 8 chars)
//	--role      admin or member (default: admin)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	userrepo "github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/user"
	"github.com/crawlingsloth/blvq-backend/internal/app"
	authpkg "github.com/crawlingsloth/blvq-backend/internal/auth"
	"github.com/crawlingsloth/blvq-backend/internal/config"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
	authsvc "github.com/crawlingsloth/blvq-backend/internal/service/auth"
)

func main() {
	usernameFlag := flag.String("username", "", "account name")
	passwordFlag := flag.String("password", "", "account password")
	roleFlag := flag.String("role", "admin", "admin or member")
	flag.Parse()

	if *usernameFlag == "" || *passwordFlag == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	users := userrepo.New(pool)
	jwtMgr := authpkg.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authService := authsvc.NewService(logger, users, jwtMgr, cfg.Auth.PasswordHashCost)

	user, err := authService.CreateUser(ctx, *usernameFlag, *passwordFlag, domain.UserRole(*roleFlag))
	if err != nil {
		logger.Error("create user failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("user created",
		slog.String("id", user.ID.String()),
		slog.String("username", user.Username),
		slog.String("role", user.Role.String()),
	)
}
