// Package app wires configuration, stores, services and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/blog-api/internal/core"
	router "example.com/blog-api/internal/http"
	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/config"
	"example.com/blog-api/internal/platform/jwt"
	"example.com/blog-api/internal/platform/password"
	"example.com/blog-api/internal/repo"
	"example.com/blog-api/internal/repo/cache"
	"example.com/blog-api/internal/repo/postgres"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  config.Config
	logger  logging.Logger
	handler http.Handler

	db  *sql.DB
	rdb *redis.Client
}

// New builds the application. With no DATABASE_URL the stores live in
// memory; with no REDIS_URL posts are read uncached.
func New(ctx context.Context, cfg config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	var (
		accounts core.AccountStore
		posts    core.PostStore
	)
	if cfg.DatabaseURL == "" {
		logger.Warn(ctx, "DATABASE_URL not set, using in-memory stores")
		accounts, posts = repo.NewAccountMem(), repo.NewPostMem()
	} else {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			app.Close()
			return nil, err
		}
		accounts, posts = postgres.NewAccountStore(db), postgres.NewPostStore(db)
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.rdb = rdb
		posts = cache.NewPostStore(posts, rdb, cfg.PostCacheTTL, logger)
	}

	tokens, err := jwt.NewHS256(jwt.Options{
		Secret:   cfg.JWTSecret,
		TTL:      cfg.TokenTTL,
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}

	accountSvc := core.NewAccountService(accounts, password.NewHasher(cfg.BcryptCost), tokens, cfg.TokenTTL, logger)
	postSvc := core.NewPostService(posts, logger)

	if cfg.AdminEmail != "" {
		if err := accountSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.handler = router.Build(router.Deps{
		Config:   cfg,
		Accounts: accountSvc,
		Posts:    postSvc,
		Verifier: tokens,
		Logger:   logger,
	})
	return app, nil
}

func (app *App) Handler() http.Handler {
	return app.handler
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{
		Addr:              app.config.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting server", "addr", srv.Addr, "env", app.config.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Warn(context.Background(), "Closing redis", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "Closing database", "error", err)
		}
	}
}
