package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/wonrang2/auskorphi/internal/app"
	"github.com/wonrang2/auskorphi/internal/fx"
	"github.com/wonrang2/auskorphi/internal/platform/cache"
	"github.com/wonrang2/auskorphi/internal/platform/db"
	"github.com/wonrang2/auskorphi/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	fxRepo := fx.NewRepository(pool)
	fxClient := fx.NewClient(cfg.FXEndpoint)
	fxService, err := fx.NewService(logger, fxClient, fxRepo, redisClient,
		cfg.FXBaseCurrency, cfg.FXQuoteCurrency, cfg.FXCacheTTL)
	if err != nil {
		logger.Error("init exchange rates", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRateRefresh, Handler: jobs.NewRateRefreshHandler(logger, fxService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.RateRefreshSpec, Task: jobs.NewRateRefreshTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	base, quote := fxService.Pair()
	logger.Info("worker started", slog.String("pair", base+"/"+quote))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
