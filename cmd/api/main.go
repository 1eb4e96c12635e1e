// Command api serves the Jobly REST API.
//
//	api                 serve HTTP
//	api -migrate=up     apply pending migrations and exit
//	api -migrate=down   roll back the last migration batch and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/app"
	"github.com/biyonik/jobly-api/internal/config"
	"github.com/biyonik/jobly-api/internal/logging"
)

func main() {
	migrate := flag.String("migrate", "", "run migrations (up or down) instead of serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	logger := logging.Logger().With().Str("app", cfg.App.Name).Logger()

	if *migrate != "" {
		if _, err := app.Migrate(context.Background(), cfg, logger, *migrate); err != nil {
			logger.Error().Err(err).Msg("migration failed")
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("shutdown incomplete")
		}
	}()

	return a.Run(ctx)
}
