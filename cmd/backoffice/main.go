// Command backoffice runs the durian trading back-office API server.
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

	"github.com/redis/go-redis/v9"

	"github.com/durianworks/backoffice/internal/app"
	"github.com/durianworks/backoffice/internal/auth"
	"github.com/durianworks/backoffice/internal/expenses"
	"github.com/durianworks/backoffice/internal/orders"
	"github.com/durianworks/backoffice/internal/platform/db"
	"github.com/durianworks/backoffice/internal/purchasing"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/sales"
	"github.com/durianworks/backoffice/internal/suppliers"
	"github.com/durianworks/backoffice/internal/varieties"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if err := db.Migrate(cfg.PGDSN); err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, nil)
	authService := auth.NewService(auth.NewRepository(pool), tokens, auth.NewTokenStore(rdb), nil)

	reportingService := reporting.NewService(reporting.NewRepository(pool), nil)

	expensesRepo := expenses.NewRepository(pool)
	expensesService := expenses.NewService(expensesRepo, expensesRepo, nil)

	purchasingRepo := purchasing.NewRepository(pool)
	purchasingEngine := orders.NewEngine(purchasingRepo, purchasing.Columns, cfg.UpdateStepTimeout)
	purchasingService := purchasing.NewService(purchasingRepo, purchasingEngine, nil)

	salesRepo := sales.NewRepository(pool)
	salesEngine := orders.NewEngine(salesRepo, sales.Columns, cfg.UpdateStepTimeout)
	salesService := sales.NewService(salesRepo, salesEngine, nil)

	router := app.NewRouter(app.RouterParams{
		Config:     cfg,
		Tokens:     tokens,
		Auth:       auth.NewHandler(logger, authService),
		Reporting:  reporting.NewHandler(logger, reportingService),
		Expenses:   expenses.NewHandler(logger, expensesService),
		Purchasing: purchasing.NewHandler(logger, purchasingService, auth.RequireSuperAdmin),
		Sales:      sales.NewHandler(logger, salesService, auth.RequireSuperAdmin),
		Suppliers:  suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool))),
		Varieties:  varieties.NewHandler(logger, varieties.NewService(varieties.NewRepository(pool))),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if app.InTestMode() {
		logger.Info("test mode enabled, shutting down immediately")
		return server.Shutdown(context.Background())
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
