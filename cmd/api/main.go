package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/swfilms/swfilms-go/internal/config"
	"github.com/swfilms/swfilms-go/internal/crypto"
	"github.com/swfilms/swfilms-go/internal/handler"
	"github.com/swfilms/swfilms-go/internal/logger"
	"github.com/swfilms/swfilms-go/internal/metrics"
	"github.com/swfilms/swfilms-go/internal/middleware"
	"github.com/swfilms/swfilms-go/internal/repository"
	"github.com/swfilms/swfilms-go/internal/router"
	"github.com/swfilms/swfilms-go/internal/scheduler"
	"github.com/swfilms/swfilms-go/internal/service"
	"github.com/swfilms/swfilms-go/internal/swapi"
)

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
	metrics.Init()

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			slog.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
	}

	userRepo := repository.NewUserRepository(db)
	movieRepo := repository.NewMovieRepository(db)

	hasher := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	catalog := swapi.NewClient(cfg.SwapiURL, cfg.SwapiTimeout)

	authService := service.NewAuthService(userRepo, hasher, tokens)
	movieService := service.NewMovieService(movieRepo, catalog, cfg.SyncConcurrency)

	sched, err := scheduler.New(cfg.SyncSchedule, movieService, 2*cfg.SwapiTimeout)
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Auth:               handler.NewAuthHandler(authService),
			Movies:             handler.NewMovieHandler(movieService),
			Gate:               middleware.NewGate(tokens),
			CORSOrigins:        cfg.CORSOrigins,
			AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
			AuthRateLimitBurst: cfg.AuthRateLimitBurst,
			TrustProxy:         cfg.TrustProxy,
			Ping:               db.PingContext,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
