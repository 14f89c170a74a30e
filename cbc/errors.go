/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cbc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSample is matched by every *ValidationError.
	ErrInvalidSample = errors.New("invalid CBC sample")
	// ErrRangeMissing reports a reference table without an entry for a marker and sex.
	ErrRangeMissing = errors.New("reference range missing")
	// ErrInvalidRange reports a reference range whose low bound exceeds its high bound.
	ErrInvalidRange = errors.New("invalid reference range")

	errUnknownMarker = errors.New("unknown marker")
	errUnknownSex    = errors.New("unknown sex")
	errNilTable      = errors.New("reference table is nil")
)

// ValidationError identifies the sample field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidSample) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSample
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
