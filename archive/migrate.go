/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package archive

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	// Register pgx with database/sql for goose migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migration dialects, named as goose names them.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func migrationsDir(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "migrations/postgres", nil
	case DialectSQLite:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

func withGoose(dialect string, fn func(dir string) error) error {
	dir, err := migrationsDir(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	return fn(dir)
}

// MigrateUp runs all pending migrations.
func MigrateUp(ctx context.Context, db *sql.DB, dialect string) error {
	return withGoose(dialect, func(dir string) error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the last migration.
func MigrateDown(ctx context.Context, db *sql.DB, dialect string) error {
	return withGoose(dialect, func(dir string) error {
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return nil
	})
}

// MigrateStatus logs the state of every migration.
func MigrateStatus(ctx context.Context, db *sql.DB, dialect string) error {
	return withGoose(dialect, func(dir string) error {
		if err := goose.StatusContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the current schema version.
func MigrationVersion(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	var version int64
	err := withGoose(dialect, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to get database version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// OpenSQL opens a database/sql handle for migrations.
func OpenSQL(ctx context.Context, dialect, dsn string) (*sql.DB, error) {
	var driver string
	switch dialect {
	case DialectPostgres:
		if dsn == "" {
			return nil, ErrDatabaseURLRequired
		}
		driver = "pgx"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SyncPostgresSchema applies pending Postgres migrations.
func SyncPostgresSchema(ctx context.Context, databaseURL string) error {
	db, err := OpenSQL(ctx, DialectPostgres, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close migration connection", "error", err)
		}
	}()

	return MigrateUp(ctx, db, DialectPostgres)
}
