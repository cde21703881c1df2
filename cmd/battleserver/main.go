// Package main provides the battle server binary: the HTTP API over battles,
// rewards and the monster ledger.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/config"
	"github.com/cory-johannsen/monsterbattle/internal/observability"
	"github.com/cory-johannsen/monsterbattle/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file with MONSTER_* overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting battle server",
		zap.String("mode", cfg.Server.Mode),
		zap.String("addr", cfg.API.Addr()),
		zap.String("ruleset", cfg.Battle.Ruleset),
		zap.String("chooser", cfg.Decision.Kind),
	)

	ctx := context.Background()
	a, cleanup, err := initApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing server", zap.Error(err))
	}
	defer cleanup()

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(a.HTTP, cfg.Server.ShutdownTimeout, logger))
	if a.Backends.Health != nil && cfg.Server.HealthInterval > 0 {
		lifecycle.Add("health", &server.TickerService{
			Name:     "backends",
			Interval: cfg.Server.HealthInterval,
			Fn:       a.Backends.Health,
			Logger:   logger,
		})
	}

	logger.Info("battle server ready", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		cleanup()
		_ = logger.Sync()
		os.Exit(1)
	}
}
