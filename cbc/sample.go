/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cbc

import (
	"fmt"
	"math"
	"strings"
)

// Sex represents biological sex for reference ranges
type Sex string

// Sex values supported by the reference table.
const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// ParseSex accepts the canonical names and their common short forms, case-insensitively.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownSex, s)
}

// Marker names one of the seven CBC markers used for screening.
type Marker string

// CBC markers.
const (
	MarkerHemoglobin Marker = "hemoglobin"
	MarkerRBCCount   Marker = "rbc_count"
	MarkerHematocrit Marker = "hematocrit"
	MarkerMCV        Marker = "mcv"
	MarkerMCH        Marker = "mch"
	MarkerMCHC       Marker = "mchc"
	MarkerRDW        Marker = "rdw"
)

// Markers lists every marker in display order.
var Markers = []Marker{
	MarkerHemoglobin,
	MarkerRBCCount,
	MarkerHematocrit,
	MarkerMCV,
	MarkerMCH,
	MarkerMCHC,
	MarkerRDW,
}

var markerInfo = map[Marker]struct {
	label string
	unit  string
}{
	MarkerHemoglobin: {"Hemoglobin (Hb)", "g/dL"},
	MarkerRBCCount:   {"RBC Count", "M/µL"},
	MarkerHematocrit: {"Hematocrit (Hct)", "%"},
	MarkerMCV:        {"MCV", "fL"},
	MarkerMCH:        {"MCH", "pg"},
	MarkerMCHC:       {"MCHC", "g/dL"},
	MarkerRDW:        {"RDW", "%"},
}

// Label returns the human readable marker name.
func (m Marker) Label() string {
	return markerInfo[m].label
}

// Unit returns the measurement unit of the marker.
func (m Marker) Unit() string {
	return markerInfo[m].unit
}

// ParseMarker maps a marker key to a Marker.
func ParseMarker(s string) (Marker, error) {
	m := Marker(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := markerInfo[m]; !ok {
		return "", fmt.Errorf("%w: %q", errUnknownMarker, s)
	}
	return m, nil
}

// Sample is a validated CBC panel.
type Sample struct {
	Sex        Sex     `json:"sex"`
	Age        int     `json:"age"`
	Hemoglobin float64 `json:"hemoglobin"`
	RBCCount   float64 `json:"rbc_count"`
	Hematocrit float64 `json:"hematocrit"`
	MCV        float64 `json:"mcv"`
	MCH        float64 `json:"mch"`
	MCHC       float64 `json:"mchc"`
	RDW        float64 `json:"rdw"`
}

// Value returns the reading for a marker.
func (s Sample) Value(m Marker) float64 {
	switch m {
	case MarkerHemoglobin:
		return s.Hemoglobin
	case MarkerRBCCount:
		return s.RBCCount
	case MarkerHematocrit:
		return s.Hematocrit
	case MarkerMCV:
		return s.MCV
	case MarkerMCH:
		return s.MCH
	case MarkerMCHC:
		return s.MCHC
	case MarkerRDW:
		return s.RDW
	}
	return math.NaN()
}

// Validate checks that the sample is inside the engine's domain.
func (s Sample) Validate() error {
	if s.Sex != SexMale && s.Sex != SexFemale {
		return invalid("sex", fmt.Sprintf("must be %s or %s", SexMale, SexFemale))
	}
	if s.Age <= 0 {
		return invalid("age", "must be a positive number of years")
	}
	for _, m := range Markers {
		if err := checkMarker(m, s.Value(m)); err != nil {
			return err
		}
	}
	return nil
}

// Input returns the wire form of the sample.
func (s Sample) Input() Input {
	age := s.Age
	in := Input{Sex: string(s.Sex), Age: &age}
	for _, m := range Markers {
		v := s.Value(m)
		*in.field(m) = &v
	}
	return in
}

func checkMarker(m Marker, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return invalid(string(m), "must be a finite number")
	case v <= 0:
		return invalid(string(m), "must be greater than zero")
	}
	return nil
}

// Input is the unvalidated wire form of a sample, as submitted by callers.
// Nil fields are missing markers.
type Input struct {
	Sex        string   `json:"sex" yaml:"sex"`
	Age        *int     `json:"age" yaml:"age"`
	Hemoglobin *float64 `json:"hemoglobin" yaml:"hemoglobin"`
	RBCCount   *float64 `json:"rbc_count" yaml:"rbc_count"`
	Hematocrit *float64 `json:"hematocrit" yaml:"hematocrit"`
	MCV        *float64 `json:"mcv" yaml:"mcv"`
	MCH        *float64 `json:"mch" yaml:"mch"`
	MCHC       *float64 `json:"mchc" yaml:"mchc"`
	RDW        *float64 `json:"rdw" yaml:"rdw"`
}

func (in *Input) field(m Marker) **float64 {
	switch m {
	case MarkerHemoglobin:
		return &in.Hemoglobin
	case MarkerRBCCount:
		return &in.RBCCount
	case MarkerHematocrit:
		return &in.Hematocrit
	case MarkerMCV:
		return &in.MCV
	case MarkerMCH:
		return &in.MCH
	case MarkerMCHC:
		return &in.MCHC
	case MarkerRDW:
		return &in.RDW
	}
	return nil
}

// Validate converts the input into a Sample. Missing markers are rejected;
// no default is ever substituted.
func (in Input) Validate() (Sample, error) {
	if strings.TrimSpace(in.Sex) == "" {
		return Sample{}, invalid("sex", "is required")
	}
	sex, err := ParseSex(in.Sex)
	if err != nil {
		return Sample{}, invalid("sex", fmt.Sprintf("must be %s or %s", SexMale, SexFemale))
	}
	if in.Age == nil {
		return Sample{}, invalid("age", "is required")
	}

	s := Sample{Sex: sex, Age: *in.Age}
	for _, m := range Markers {
		v := *in.field(m)
		if v == nil {
			return Sample{}, invalid(string(m), "is required")
		}
		switch m {
		case MarkerHemoglobin:
			s.Hemoglobin = *v
		case MarkerRBCCount:
			s.RBCCount = *v
		case MarkerHematocrit:
			s.Hematocrit = *v
		case MarkerMCV:
			s.MCV = *v
		case MarkerMCH:
			s.MCH = *v
		case MarkerMCHC:
			s.MCHC = *v
		case MarkerRDW:
			s.RDW = *v
		}
	}

	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}
