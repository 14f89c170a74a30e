/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

import "errors"

// ErrArchiveWrite marks a settled result that could not be archived. It is a
// warning: the published result stands.
var ErrArchiveWrite = errors.New("failed to archive report")
