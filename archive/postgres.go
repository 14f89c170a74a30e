/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of *pgxpool.Pool used by Postgres.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Postgres stores reports in PostgreSQL.
type Postgres struct {
	pool pgxQuerier
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool pgxQuerier) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres initializes the database connection pool, creating the
// database if it does not exist yet.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, ErrDatabaseURLRequired
	}

	// Try to create the database if it doesn't exist
	if err := ensureDatabaseExists(ctx, databaseURL); err != nil {
		return nil, fmt.Errorf("failed to ensure database exists: %w", err)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Append inserts a report.
func (p *Postgres) Append(ctx context.Context, rec Record) error {
	if p.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	sample, result, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (id, created_at, sample, result)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := p.pool.Exec(ctx, query, rec.ID, rec.CreatedAt, sample, result); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// List returns all reports, most recent first.
func (p *Postgres) List(ctx context.Context) ([]Record, error) {
	if p.pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, created_at, sample, result
		FROM reports
		ORDER BY seq DESC
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec            Record
			sample, result []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &sample, &result); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if err := decodeRecord(&rec, sample, result); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return records, nil
}

// Clear deletes every report.
func (p *Postgres) Clear(ctx context.Context) error {
	if p.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := p.pool.Exec(ctx, `DELETE FROM reports`); err != nil {
		return fmt.Errorf("failed to clear reports: %w", err)
	}

	return nil
}

// ensureDatabaseExists creates the database if it doesn't exist
func ensureDatabaseExists(ctx context.Context, databaseURL string) error {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbName := config.Database
	if dbName == "" {
		return ErrDatabaseNameNotSpecified
	}

	// Connect to 'postgres' database to create the target database
	config.Database = "postgres"

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close bootstrap database connection", "error", err)
		}
	}()

	var exists bool

	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		// Database names can't be parameterized; pgx.Identifier handles quoting
		sql := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()

		_, err = conn.Exec(ctx, sql)
		if err != nil {
			// Ignore error if database was created by another process
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create database: %w", err)
			}
		}
		logger.Info("Created database", "name", dbName)
	}

	return nil
}
