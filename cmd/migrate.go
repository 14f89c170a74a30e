/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/hemoscan/archive"
)

var CmdMigrate = &cli.Command{
	Name:  "migrate",
	Usage: "Database migration commands",
	Flags: storeFlags(),
	Commands: []*cli.Command{
		{
			Name:   "up",
			Usage:  "Run all pending migrations",
			Action: migrateUp,
		},
		{
			Name:   "down",
			Usage:  "Roll back the last migration",
			Action: migrateDown,
		},
		{
			Name:   "status",
			Usage:  "Show migration status",
			Action: migrateStatus,
		},
		{
			Name:   "create",
			Usage:  "Create a new migration file <name> for the selected database",
			Action: migrateCreate,
		},
		{
			Name:   "version",
			Usage:  "Print the current version of the database",
			Action: migrateVersion,
		},
	},
}

// selectDialect picks PostgreSQL when a URL is set, SQLite otherwise.
func selectDialect(cmd *cli.Command) (dialect, dsn string, err error) {
	if databaseURL := cmd.String("database-url"); databaseURL != "" {
		return archive.DialectPostgres, databaseURL, nil
	}
	if sqlitePath := cmd.String("sqlite-path"); sqlitePath != "" {
		return archive.DialectSQLite, sqlitePath, nil
	}
	return "", "", errStoreRequired
}

func getDB(ctx context.Context, cmd *cli.Command) (*sql.DB, string, error) {
	dialect, dsn, err := selectDialect(cmd)
	if err != nil {
		return nil, "", err
	}

	db, err := archive.OpenSQL(ctx, dialect, dsn)
	if err != nil {
		return nil, "", err
	}

	return db, dialect, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		appLogger.Warn("Failed to close migration connection", "error", err)
	}
}

func migrateUp(ctx context.Context, cmd *cli.Command) error {
	db, dialect, err := getDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := archive.MigrateUp(ctx, db, dialect); err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, "Migrations completed successfully")
	return nil
}

func migrateDown(ctx context.Context, cmd *cli.Command) error {
	db, dialect, err := getDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := archive.MigrateDown(ctx, db, dialect); err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, "Migration rolled back successfully")
	return nil
}

func migrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, dialect, err := getDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB(db)

	return archive.MigrateStatus(ctx, db, dialect)
}

func migrateVersion(ctx context.Context, cmd *cli.Command) error {
	db, dialect, err := getDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB(db)

	version, err := archive.MigrationVersion(ctx, db, dialect)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Database version: %d\n", version)
	return nil
}

func migrateCreate(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() < 1 {
		return errMigrationNameRequired
	}
	name := args.First()

	dialect, _, err := selectDialect(cmd)
	if err != nil {
		return err
	}

	sub := "postgres"
	if dialect == archive.DialectSQLite {
		sub = "sqlite"
	}

	// Note: This command is for development only and requires source code access
	migrationsDir := filepath.Join("archive", "migrations", sub)
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	// Don't use embedded FS for create - we need to write to actual filesystem
	if err := goose.Create(nil, migrationsDir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Created new migration in %s/\n", migrationsDir)
	return nil
}
