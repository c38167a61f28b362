// Command worker runs the background task server: the nightly totals
// integrity scan and any future scheduled jobs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/durianworks/backoffice/internal/app"
	"github.com/durianworks/backoffice/internal/jobs"
	"github.com/durianworks/backoffice/internal/platform/db"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	checker := jobs.NewIntegrityChecker(logger, pool)
	worker := jobs.NewWorker(logger, cfg.RedisAddr, checker)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
		errCh <- worker.Run()
	}()

	if app.InTestMode() {
		logger.Info("test mode enabled, shutting down immediately")
		worker.Shutdown()
		return
	}

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("worker exited", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		worker.Shutdown()
	}
}
