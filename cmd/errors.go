/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errMigrationNameRequired = errors.New("migration name is required")
	errSampleFileRequired    = errors.New("at least one sample file is required")
	errUnknownAugmenter      = errors.New("augmenter must be one of: ollama, gemini, anthropic, none")
	errStoreRequired         = errors.New("database-url or sqlite-path is required (set via flag or DATABASE_URL / HEMOSCAN_SQLITE_PATH)")
	errClearNotConfirmed     = errors.New("refusing to clear history without --yes")
	errInvalidRate           = errors.New("augment-rate must not be negative")
)
