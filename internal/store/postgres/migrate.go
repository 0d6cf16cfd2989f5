// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/opentrusty/companies/internal/observability/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return db.runMigrations(ctx, "up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown reverts every migration, dropping all tables.
func (db *DB) MigrateDown(ctx context.Context) error {
	return db.runMigrations(ctx, "down", func(m *migrate.Migrate) error { return m.Down() })
}

// MigrationVersion returns the current schema version.
func (db *DB) MigrationVersion(ctx context.Context) (version uint, dirty bool, err error) {
	err = db.withMigrator(func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			err = nil
		}
		return err
	})
	return version, dirty, err
}

func (db *DB) runMigrations(ctx context.Context, direction string, run func(*migrate.Migrate) error) error {
	return db.withMigrator(func(m *migrate.Migrate) error {
		started := time.Now()
		if err := run(m); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				slog.InfoContext(ctx, "no pending migrations", logger.Component("migrate"), slog.String("direction", direction))
				return nil
			}
			return fmt.Errorf("failed to run migrations %s: %w", direction, err)
		}
		slog.InfoContext(ctx, "migrations completed", logger.Component("migrate"),
			slog.String("direction", direction), logger.Elapsed(time.Since(started)))
		return nil
	})
}

func (db *DB) withMigrator(fn func(*migrate.Migrate) error) error {
	// The migrator does not own sqlDB. Closing sqlDB releases its
	// connections back to the pool, which stays open.
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close migration connection", logger.Error(err))
		}
	}()

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := migrator.Close(); sourceErr != nil || dbErr != nil {
			slog.Error("failed to close migrator", "sourceErr", sourceErr, "dbErr", dbErr)
		}
	}()

	return fn(migrator)
}
