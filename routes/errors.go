/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errAnalysisFailed     = errors.New("analysis failed")
	errListReportsFailed  = errors.New("failed to list reports")
	errClearReportsFailed = errors.New("failed to clear reports")
)
