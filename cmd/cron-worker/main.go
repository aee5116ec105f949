package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tabsplit/tabsplit-backend/internal/cron"
	"github.com/tabsplit/tabsplit-backend/internal/receipts"
	"github.com/tabsplit/tabsplit-backend/internal/splits"
	"github.com/tabsplit/tabsplit-backend/pkg/config"
	"github.com/tabsplit/tabsplit-backend/pkg/db"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	"github.com/tabsplit/tabsplit-backend/pkg/metrics"
	"github.com/tabsplit/tabsplit-backend/pkg/migrate"
	"github.com/tabsplit/tabsplit-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	receiptsService, err := receipts.NewService(receipts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	splitMetrics := metrics.NewSplitMetrics(prometheus.DefaultRegisterer)
	recordCache := splits.NewRecordCache(redisClient, cfg.Split.CacheTTL, logg)
	splitsService, err := splits.NewService(
		splits.NewRepository(dbClient.DB()),
		receipts.NewRepository(dbClient.DB()),
		dbClient,
		recordCache,
		splitMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create splits service", err)
		os.Exit(1)
	}

	warmJob, err := cron.NewWarmSplitsJob(cron.WarmSplitsJobParams{
		Logger:      logg,
		Receipts:    receiptsService,
		Splits:      splitsService,
		Lookback:    cfg.Split.WarmLookback,
		Concurrency: cfg.Split.WarmConcurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create warm splits job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockScope(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(warmJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Split.WarmInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockScope(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
