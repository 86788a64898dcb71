package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"workspots/internal/config"
	"workspots/internal/database"
	"workspots/internal/domain/auth"
	"workspots/internal/logger"
)

// Deletes expired or revoked refresh tokens and used or expired action
// tokens. Meant to run from cron.
func main() {
	logger.SetupDefault(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := auth.NewRepository(db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("auth cleanup failed", "err", err)
		os.Exit(1)
	}
	slog.Info("auth cleanup completed", "deleted", n)
}
