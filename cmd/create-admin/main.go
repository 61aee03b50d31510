// Command create-admin provisions an administrator account in the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/persistence"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "create-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var input service.SignupInput

	flagSet := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	flagSet.StringVar(&input.Username, "username", envOr("ADMIN_USERNAME", "admin"), "administrator display name")
	flagSet.StringVar(&input.Email, "email", os.Getenv("ADMIN_EMAIL"), "administrator email (env ADMIN_EMAIL)")
	flagSet.StringVar(&input.AadharNo, "aadhar", os.Getenv("ADMIN_AADHAR_NO"), "12-digit identity number (env ADMIN_AADHAR_NO)")
	flagSet.StringVar(&input.Password, "password", os.Getenv("ADMIN_PASSWORD"), "initial password (env ADMIN_PASSWORD)")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required; an in-memory store would discard the account")
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	users := repository.NewUserRepository(pg.PoolHandle())
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	admin, err := service.NewAuthService(cfg.Auth, tokens, users).CreateAdmin(ctx, input)
	if err != nil {
		return err
	}

	logger.Info("administrator created", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
