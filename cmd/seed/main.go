// Command seed creates the administrator account if it does not exist.
// An existing account is never modified.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/swfilms/swfilms-go/internal/config"
	"github.com/swfilms/swfilms-go/internal/crypto"
	"github.com/swfilms/swfilms-go/internal/logger"
	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/repository"
)

const (
	adminUsername = "admin"
	adminName     = "Administrator"
)

var errNotAdmin = errors.New("username is held by a non-admin account")

type adminStore interface {
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(cfg.Env))

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Migrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			return err
		}
	}

	hasher := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	return seedAdmin(ctx, repository.NewUserRepository(db), hasher, cfg.SeedAdminPassword, os.Stdout)
}

// seedAdmin inserts the admin account when it is missing. A generated
// password is written to out only if the account was actually created.
func seedAdmin(ctx context.Context, store adminStore, hasher passwordHasher, password string, out io.Writer) error {
	generated := password == ""
	if generated {
		var err error
		if password, err = crypto.GeneratePassword(20); err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &model.User{
		Name:         adminName,
		Username:     adminUsername,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	created, err := store.CreateIfAbsent(ctx, admin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	if !created {
		if admin.Role != model.RoleAdmin {
			return fmt.Errorf("%q: %w", adminUsername, errNotAdmin)
		}
		slog.Info("admin account already exists, left unchanged", "user_id", admin.ID)
		return nil
	}

	slog.Info("admin account created", "user_id", admin.ID, "username", admin.Username)
	if generated {
		// printed once, never logged
		fmt.Fprintf(out, "generated admin password: %s\n", password)
	}
	return nil
}
