// -----------------------------------------------------------------------------
// Database Migration System
// -----------------------------------------------------------------------------
// Migrations are plain SQL files read from an fs.FS (usually an embed.FS):
//
//	001_create_companies.up.sql
//	001_create_companies.down.sql
//
// Files are applied in name order. Each Up run records the applied
// migrations in the "migrations" table under a new batch number; Rollback
// undoes the most recent batch in reverse order. Every migration runs in its
// own transaction together with its bookkeeping row.
// -----------------------------------------------------------------------------

package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/pkg/database"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration is one named schema change.
type Migration struct {
	Name string
	Up   string
	Down string
}

// Load reads the migrations stored under dir in fsys. Every .up.sql file
// needs a matching .down.sql file.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byName := make(map[string]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		file := e.Name()

		var name string
		var up bool
		switch {
		case strings.HasSuffix(file, upSuffix):
			name, up = strings.TrimSuffix(file, upSuffix), true
		case strings.HasSuffix(file, downSuffix):
			name = strings.TrimSuffix(file, downSuffix)
		default:
			continue
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}

		m, ok := byName[name]
		if !ok {
			m = &Migration{Name: name}
			byName[name] = m
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byName))
	for _, m := range byName {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s: needs both %s and %s files", m.Name, upSuffix, downSuffix)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Name < migrations[j].Name })
	return migrations, nil
}

// Migrator applies and rolls back migrations.
type Migrator struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sqlx.DB, logger zerolog.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
	id SERIAL PRIMARY KEY,
	migration VARCHAR(255) NOT NULL UNIQUE,
	batch INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// CreateMigrationsTable creates the bookkeeping table if it is missing.
func (m *Migrator) CreateMigrationsTable(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	return nil
}

// GetRanMigrations returns the names of applied migrations, oldest first.
func (m *Migrator) GetRanMigrations(ctx context.Context) ([]string, error) {
	var names []string
	err := m.db.SelectContext(ctx, &names, "SELECT migration FROM migrations ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return names, nil
}

// GetLastBatch returns the highest batch number, 0 when nothing ran yet.
func (m *Migrator) GetLastBatch(ctx context.Context) (int, error) {
	var batch sql.NullInt64
	if err := m.db.GetContext(ctx, &batch, "SELECT MAX(batch) FROM migrations"); err != nil {
		return 0, fmt.Errorf("read last batch: %w", err)
	}
	return int(batch.Int64), nil
}

// Up applies every pending migration as one new batch and returns the
// names it applied.
func (m *Migrator) Up(ctx context.Context, migrations []Migration) ([]string, error) {
	if err := m.CreateMigrationsTable(ctx); err != nil {
		return nil, err
	}

	ran, err := m.GetRanMigrations(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(ran))
	for _, name := range ran {
		done[name] = true
	}

	last, err := m.GetLastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch := last + 1

	var applied []string
	for _, mig := range migrations {
		if done[mig.Name] {
			continue
		}
		err := database.WithTransaction(ctx, m.db, func(tx database.Executor) error {
			if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO migrations (migration, batch) VALUES ($1, $2)", mig.Name, batch)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		m.logger.Info().Str("migration", mig.Name).Int("batch", batch).Msg("migrated")
		applied = append(applied, mig.Name)
	}
	return applied, nil
}

// Rollback undoes the last batch and returns the names it rolled back.
func (m *Migrator) Rollback(ctx context.Context, migrations []Migration) ([]string, error) {
	if err := m.CreateMigrationsTable(ctx); err != nil {
		return nil, err
	}

	last, err := m.GetLastBatch(ctx)
	if err != nil || last == 0 {
		return nil, err
	}

	var names []string
	err = m.db.SelectContext(ctx, &names, "SELECT migration FROM migrations WHERE batch = $1 ORDER BY id DESC", last)
	if err != nil {
		return nil, fmt.Errorf("list batch %d: %w", last, err)
	}

	byName := make(map[string]Migration, len(migrations))
	for _, mig := range migrations {
		byName[mig.Name] = mig
	}

	var rolled []string
	for _, name := range names {
		mig, ok := byName[name]
		if !ok {
			return rolled, fmt.Errorf("migration %s: no source available for rollback", name)
		}
		err := database.WithTransaction(ctx, m.db, func(tx database.Executor) error {
			if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE migration = $1", name)
			return err
		})
		if err != nil {
			return rolled, fmt.Errorf("rollback %s: %w", name, err)
		}
		m.logger.Info().Str("migration", name).Msg("rolled back")
		rolled = append(rolled, name)
	}
	return rolled, nil
}
