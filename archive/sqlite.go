/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores reports in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, enables WAL mode and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}

	if err := MigrateUp(ctx, db, DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Opened SQLite archive", "path", path)

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append inserts a report.
func (s *SQLite) Append(ctx context.Context, rec Record) error {
	sample, result, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, sample, result) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(sample), string(result))
	if err != nil {
		return fmt.Errorf("sqlite: insert report: %w", err)
	}

	return nil
}

// List returns all reports, most recent first.
func (s *SQLite) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, sample, result FROM reports ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec                       Record
			createdAt, sample, result string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &sample, &result); err != nil {
			return nil, fmt.Errorf("sqlite: scan report: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse created_at of report %s: %w", rec.ID, err)
		}
		if err := decodeRecord(&rec, []byte(sample), []byte(result)); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate reports: %w", err)
	}

	return records, nil
}

// Clear deletes every report.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports`); err != nil {
		return fmt.Errorf("sqlite: clear reports: %w", err)
	}
	return nil
}
