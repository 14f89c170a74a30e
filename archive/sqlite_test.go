// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestSQLite(t)

	want := []Record{testRecord(t, 3), testRecord(t, 2), testRecord(t, 1)}
	for i := len(want) - 1; i >= 0; i-- {
		if err := s.Append(ctx, want[i]); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteOrderFollowsInsertion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestSQLite(t)

	// Timestamps out of order: the archive orders by insertion, not clock.
	late, early := testRecord(t, 9), testRecord(t, 1)
	if err := s.Append(ctx, late); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, early); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if diff := cmp.Diff([]string{early.ID, late.ID}, ids(got)); diff != "" {
		t.Fatalf("List order mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestSQLite(t)

	if err := s.Append(ctx, testRecord(t, 1)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty archive after Clear, got %d records", len(got))
	}
}

func TestSQLiteRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestSQLite(t)

	rec := testRecord(t, 1)
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, rec); err == nil {
		t.Fatal("expected error appending a duplicate id")
	}
}

func TestSQLiteMigrationVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestSQLite(t)

	version, err := MigrationVersion(ctx, s.db, DialectSQLite)
	if err != nil {
		t.Fatalf("MigrationVersion failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestMigrateUnknownDialect(t *testing.T) {
	t.Parallel()

	if err := MigrateUp(context.Background(), nil, "oracle"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
