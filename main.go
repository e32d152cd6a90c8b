package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/pairchat/internal/config"
	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/handler"
	"github.com/msomdec/pairchat/internal/repository/badgerdb"
	"github.com/msomdec/pairchat/internal/repository/memory"
	"github.com/msomdec/pairchat/internal/repository/sqlite"
	"github.com/msomdec/pairchat/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()

	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		slog.Error("failed to open database", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "backend", cfg.StorageBackend)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	deps := handler.Deps{
		Auth:         service.NewAuthService(db.Users(), tokens, cfg.BcryptCost),
		Chat:         service.NewChatService(db.Users(), db.Messages()),
		Tokens:       tokens,
		AuthLimiter:  service.NewTokenBucket(ctx, cfg.AuthRate, cfg.AuthBurst),
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openDatabase(cfg *config.Config) (domain.Database, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return sqlite.New(cfg.DatabasePath)
	case config.BackendBadger:
		return badgerdb.Open(cfg.BadgerDir)
	case config.BackendMemory:
		slog.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
