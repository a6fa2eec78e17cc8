package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/config"
	"github.com/mini-drive/backend/internal/db"
	"github.com/mini-drive/backend/internal/handler"
	"github.com/mini-drive/backend/internal/logging"
	"github.com/mini-drive/backend/internal/service"
	"github.com/mini-drive/backend/internal/storage"
)

// @title mini-drive API
// @version 1.0
// @description Token-authenticated per-user file storage service.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, flush := logging.New(cfg.Log)
	defer flush()

	dsn, err := db.BuildPostgresURL(cfg.Postgres)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, dsn); err != nil {
		if errors.Is(err, db.ErrMigrationDrift) {
			log.Error("changelog checksum mismatch, refusing to start", zap.Error(err))
		}
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	blobs, err := storage.NewDisk(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}

	authSvc, err := service.NewAuthService(store, cfg.Auth)
	if err != nil {
		return err
	}
	userSvc := service.NewUserService(store)
	fileSvc := service.NewFileService(store, blobs, log)

	if cfg.Auth.AdminUsername != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	router := handler.NewRouter(handler.RouterDeps{
		Log:     log,
		Auth:    authSvc,
		Users:   userSvc,
		Files:   fileSvc,
		HTTP:    cfg.HTTP,
		Storage: cfg.Storage,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
