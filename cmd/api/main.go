package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tabsplit/tabsplit-backend/api/routes"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, receiptsService, splitsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
