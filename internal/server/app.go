// Package server wires configuration, storage, the synchronization core and
// the HTTP API together and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/api"
	"github.com/dmitrijs2005/sortify/internal/server/config"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sortify/internal/server/services"
	"github.com/dmitrijs2005/sortify/internal/server/storage"
	"github.com/labstack/echo/v4"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	connectAttempts = 5
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *echo.Echo
}

// NewApp opens the database, applies migrations and builds the router.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	// the database container may still be starting
	err = retry.Do(ctx, retry.WithMaxRetries(connectAttempts, retry.NewExponential(500*time.Millisecond)), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	presigner, err := storage.NewS3Presigner(ctx, storage.Options{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Expires:      cfg.PresignValidityDuration,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := services.NewSyncService(db, rm, presigner, cfg, logger)
	handler := api.NewHandler(svc, db, logger)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		http:   api.SetupRouter(handler, cfg, logger),
	}, nil
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then drains in-flight requests and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.http.Start(app.config.EndpointAddrHTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}
