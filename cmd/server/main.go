package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/estates/internal/auth"
	"github.com/JonMunkholm/estates/internal/config"
	"github.com/JonMunkholm/estates/internal/core"
	"github.com/JonMunkholm/estates/internal/database"
	"github.com/JonMunkholm/estates/internal/logging"
	"github.com/JonMunkholm/estates/internal/supervisor"
	"github.com/JonMunkholm/estates/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Color)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database",
		"pool_size", cfg.Database.PoolSize,
		"max_conns", cfg.Database.MaxConns(),
	)

	service := core.NewService(database.NewStore(pool))

	accounts, err := auth.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
	if err != nil {
		logger.Error("failed to configure login", "error", err)
		os.Exit(1)
	}
	tokens, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		logger.Error("failed to configure tokens", "error", err)
		os.Exit(1)
	}

	tree := supervisor.NewTree(logger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	var trigger web.IngestTrigger
	if cfg.Ingest.Enabled {
		ingester := core.NewIngester(service, core.IngestConfig{
			DataDir:        cfg.Ingest.DataDir,
			ProcessedDir:   cfg.Ingest.ProcessedDir,
			ErroredDir:     cfg.Ingest.ErroredDir,
			MaxFileSize:    cfg.Ingest.MaxFileSize,
			OfferName:      cfg.Ingest.OfferName,
			EstateTypeName: cfg.Ingest.EstateTypeName,
			CityName:       cfg.Ingest.CityName,
			CityPartName:   cfg.Ingest.CityPartName,
		}, core.Converter{
			CurrencyRate: cfg.Conversion.CurrencyRate,
			SqmPerAcre:   cfg.Conversion.SqmPerAcre,
			SqmPerSqft:   cfg.Conversion.SqmPerSqft,
		})
		scheduler := core.NewScheduler(ingester, cfg.Ingest.Interval, cfg.Ingest.RunOnStart, logger)
		tree.AddJobService(scheduler)
		trigger = scheduler
	} else {
		logger.Info("ingestion disabled")
	}

	server := web.NewServer(service, trigger, accounts, tokens, cfg)
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("supervisor stopped", "error", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logger.Warn("services did not stop in time", "count", len(report))
	}
	logger.Info("shutdown complete")
}
