package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/config"
	"github.com/biyonik/jobly-api/internal/migrations"
	"github.com/biyonik/jobly-api/pkg/container"
	"github.com/biyonik/jobly-api/pkg/database/migration"
)

// Migration directions accepted by Migrate.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// Migrate applies pending migrations (up) or rolls back the most recent
// batch (down) without starting the server, and returns the names it
// touched.
func Migrate(ctx context.Context, cfg *config.Config, logger zerolog.Logger, direction string, opts ...Option) ([]string, error) {
	if direction != MigrateUp && direction != MigrateDown {
		return nil, fmt.Errorf("unknown migrate direction %q (up or down)", direction)
	}

	c := container.New()
	provide(ctx, c, cfg, logger)
	for _, opt := range opts {
		opt(c)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error().Err(err).Msg("migrate cleanup failed")
		}
	}()

	db, err := container.Resolve[*sqlx.DB](c)
	if err != nil {
		return nil, err
	}
	all, err := migrations.All()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	m := migration.NewMigrator(db, logger)
	if direction == MigrateDown {
		rolled, err := m.Rollback(ctx, all)
		if err != nil {
			return rolled, fmt.Errorf("rollback: %w", err)
		}
		logger.Info().Strs("rolled_back", rolled).Msg("rollback complete")
		return rolled, nil
	}

	applied, err := m.Up(ctx, all)
	if err != nil {
		return applied, fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Strs("applied", applied).Msg("migrations up to date")
	return applied, nil
}
