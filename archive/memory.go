/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package archive

import (
	"context"
	"sync"
)

// Memory is an in-process archive.
type Memory struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{}
}

// Append inserts rec at the front.
func (m *Memory) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]Record{rec.clone()}, m.records...)
	return nil
}

// List returns copies of all records, most recent first.
func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	for i, r := range m.records {
		out[i] = r.clone()
	}
	return out, nil
}

// Clear removes every record.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}
