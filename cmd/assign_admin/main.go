package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"workspots/internal/config"
	"workspots/internal/database"
	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
	"workspots/internal/logger"
)

// Grants (or with -revoke removes) the admin flag. The first admin can only
// be created this way.
//
//	assign_admin [-revoke] <identity-id|email>
func main() {
	revoke := flag.Bool("revoke", false, "remove the admin flag instead of granting it")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: assign_admin [-revoke] <identity-id|email>")
		os.Exit(2)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := resolveID(ctx, auth.NewRepository(db), flag.Arg(0))
	if err != nil {
		slog.Error("find user", "user", flag.Arg(0), "err", err)
		os.Exit(1)
	}

	profiles := profile.NewRepository(db, nil)
	if err := profiles.Update(ctx, id, map[string]any{"is_admin": !*revoke}); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			slog.Error("user has no profile yet; sign in once first", "id", id)
		} else {
			slog.Error("update profile", "id", id, "err", err)
		}
		os.Exit(1)
	}
	slog.Info("admin flag updated", "id", id, "is_admin", !*revoke)
}

func resolveID(ctx context.Context, identities auth.Repository, arg string) (string, error) {
	if !strings.Contains(arg, "@") {
		return arg, nil
	}
	i, err := identities.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(arg)))
	if err != nil {
		return "", err
	}
	return i.ID, nil
}
