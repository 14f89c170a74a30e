/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package archive stores finalized screening reports, most recent first.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/humaidq/hemoscan/augment"
	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/logging"
)

var logger = logging.Logger(logging.SourceArchive)

// Record is an immutable archived report.
type Record struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Sample    cbc.Sample     `json:"sample"`
	Result    augment.Result `json:"result"`
}

// Archive is an append-only, reverse-chronological report history. There is
// no per-record update or delete; Clear removes everything.
type Archive interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}

func (r Record) clone() Record {
	r.Result = r.Result.Clone()
	return r
}

func encodeRecord(rec Record) (sample, result []byte, err error) {
	sample, err = json.Marshal(rec.Sample)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode sample: %w", err)
	}
	result, err = json.Marshal(rec.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return sample, result, nil
}

func decodeRecord(rec *Record, sample, result []byte) error {
	if err := json.Unmarshal(sample, &rec.Sample); err != nil {
		return fmt.Errorf("failed to decode sample of report %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return fmt.Errorf("failed to decode result of report %s: %w", rec.ID, err)
	}
	return nil
}
