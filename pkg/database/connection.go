// -----------------------------------------------------------------------------
// Database Package
// -----------------------------------------------------------------------------
// Central PostgreSQL connection handling. Connect opens a pooled sqlx.DB on
// the lib/pq driver, applies the pool settings and pings the server before
// handing the pool out; a pool that cannot reach the server is closed again.
// -----------------------------------------------------------------------------

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// Config holds the pool settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultConfig returns the pool settings used when none are configured.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Connect opens the pool and checks that the server answers.
//
// Parameters:
//   - ctx: bounds the initial ping
//   - cfg: DSN and pool settings
//   - logger: receives connection progress
//
// Returns:
//   - *sqlx.DB: the ready pool
//   - error: open or ping failure
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info().Msg("connecting to database")
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("database connection established")
	return db, nil
}
