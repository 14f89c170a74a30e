/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cbc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTableVersion identifies the built-in reference data.
const DefaultTableVersion = "2024-hemoscan-1"

// Range is a closed reference interval.
type Range struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Contains reports whether low <= v <= high.
func (r Range) Contains(v float64) bool {
	return r.Low <= v && v <= r.High
}

// RangeDefinition is a single row of a reference table.
type RangeDefinition struct {
	Marker Marker `json:"marker"`
	Sex    Sex    `json:"sex"`
	Range  Range  `json:"range"`
	Unit   string `json:"unit"`
}

// Table holds per-marker, per-sex reference ranges. A Table is read-only
// once built.
type Table struct {
	version string
	ranges  map[Marker]map[Sex]Range
}

// NewTable builds a table from definitions. Later definitions for the same
// marker and sex replace earlier ones.
func NewTable(version string, defs []RangeDefinition) *Table {
	t := &Table{version: version, ranges: make(map[Marker]map[Sex]Range)}
	for _, d := range defs {
		bySex, ok := t.ranges[d.Marker]
		if !ok {
			bySex = make(map[Sex]Range)
			t.ranges[d.Marker] = bySex
		}
		bySex[d.Sex] = d.Range
	}
	return t
}

// Version returns the version label of the reference data.
func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// RangeFor returns the reference range for a marker and sex.
func (t *Table) RangeFor(m Marker, sex Sex) (Range, error) {
	if t == nil {
		return Range{}, errNilTable
	}
	r, ok := t.ranges[m][sex]
	if !ok {
		return Range{}, fmt.Errorf("%w: %s (%s)", ErrRangeMissing, m, sex)
	}
	return r, nil
}

// Check verifies every marker has a well-formed range for both sexes.
func (t *Table) Check() error {
	if t == nil {
		return errNilTable
	}
	var errs []error
	for _, m := range Markers {
		for _, sex := range []Sex{SexMale, SexFemale} {
			r, err := t.RangeFor(m, sex)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if r.Low > r.High {
				errs = append(errs, fmt.Errorf("%w: %s (%s) low %.2f > high %.2f", ErrInvalidRange, m, sex, r.Low, r.High))
			}
		}
	}
	return errors.Join(errs...)
}

// Definitions returns the table rows in marker display order.
func (t *Table) Definitions() []RangeDefinition {
	var defs []RangeDefinition
	for _, m := range Markers {
		for _, sex := range []Sex{SexMale, SexFemale} {
			if r, ok := t.ranges[m][sex]; ok {
				defs = append(defs, RangeDefinition{Marker: m, Sex: sex, Range: r, Unit: m.Unit()})
			}
		}
	}
	return defs
}

// DefaultTable returns the built-in adult reference ranges.
func DefaultTable() *Table {
	return NewTable(DefaultTableVersion, defaultDefinitions())
}

func both(m Marker, low, high float64) []RangeDefinition {
	return []RangeDefinition{
		{Marker: m, Sex: SexMale, Range: Range{Low: low, High: high}},
		{Marker: m, Sex: SexFemale, Range: Range{Low: low, High: high}},
	}
}

func defaultDefinitions() []RangeDefinition {
	defs := []RangeDefinition{
		// ===== HEMOGLOBIN (g/dL) =====
		{Marker: MarkerHemoglobin, Sex: SexMale, Range: Range{Low: 13.5, High: 17.5}},
		{Marker: MarkerHemoglobin, Sex: SexFemale, Range: Range{Low: 12.0, High: 15.5}},

		// ===== RED BLOOD CELLS (M/µL) =====
		{Marker: MarkerRBCCount, Sex: SexMale, Range: Range{Low: 4.5, High: 5.9}},
		{Marker: MarkerRBCCount, Sex: SexFemale, Range: Range{Low: 4.1, High: 5.1}},

		// ===== HEMATOCRIT (%) =====
		{Marker: MarkerHematocrit, Sex: SexMale, Range: Range{Low: 41, High: 50}},
		{Marker: MarkerHematocrit, Sex: SexFemale, Range: Range{Low: 36, High: 44}},
	}

	// Red cell indices are unisex
	defs = append(defs, both(MarkerMCV, 80, 100)...)
	defs = append(defs, both(MarkerMCH, 27, 33)...)
	defs = append(defs, both(MarkerMCHC, 32, 36)...)
	defs = append(defs, both(MarkerRDW, 11.5, 14.5)...)

	for i := range defs {
		defs[i].Unit = defs[i].Marker.Unit()
	}
	return defs
}

type tableFile struct {
	Version string                      `yaml:"version"`
	Markers map[string]map[string]Range `yaml:"markers"`
}

// LoadTable reads a YAML reference table:
//
//	version: lab-2025
//	markers:
//	  hemoglobin:
//	    male: {low: 13.5, high: 17.5}
//	    female: {low: 12.0, high: 15.5}
//
// The table must cover every marker for both sexes.
func LoadTable(r io.Reader) (*Table, error) {
	var f tableFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode reference table: %w", err)
	}

	var defs []RangeDefinition
	for key, bySex := range f.Markers {
		m, err := ParseMarker(key)
		if err != nil {
			return nil, err
		}
		for sexKey, rng := range bySex {
			sex, err := ParseSex(sexKey)
			if err != nil {
				return nil, fmt.Errorf("marker %s: %w", m, err)
			}
			defs = append(defs, RangeDefinition{Marker: m, Sex: sex, Range: rng, Unit: m.Unit()})
		}
	}

	version := f.Version
	if version == "" {
		version = "custom"
	}

	t := NewTable(version, defs)
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTableFile reads a YAML reference table from path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	return LoadTable(f)
}
