/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package archive

import "errors"

var (
	// ErrDatabaseURLRequired is returned when no Postgres URL is configured.
	ErrDatabaseURLRequired = errors.New("database-url is required")
	// ErrDatabaseNameNotSpecified is returned when the URL names no database.
	ErrDatabaseNameNotSpecified = errors.New("database name not specified in DATABASE_URL")
	// ErrDatabaseConnectionNotInitialized is returned by stores without a connection.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	// ErrUnknownDialect is returned for migration dialects other than postgres and sqlite3.
	ErrUnknownDialect = errors.New("unknown migration dialect")
)
