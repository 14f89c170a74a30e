/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cbc

import (
	"fmt"
	"strings"
)

// Severity grades anemia by hemoglobin.
type Severity string

// Severity values.
const (
	SeverityNormal   Severity = "Normal"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// RiskLevel is the clinical risk tier of a diagnosis.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Morphology labels.
const (
	MorphologyNone                  = "N/A"
	MorphologyThalassemiaTrait      = "Microcytic (Possible Thalassemia Trait)"
	MorphologyMicrocyticHypochromic = "Microcytic Hypochromic"
	MorphologyMacrocytic            = "Macrocytic"
	MorphologyNormocytic            = "Normocytic"
)

// Clinical thresholds. Severity bins are half-open with the boundary in the
// healthier bin.
const (
	mildHemoglobinMin     = 11.0
	moderateHemoglobinMin = 8.0

	anisocytosisRDW   = 15.0
	elevatedRiskRDW   = 16.0
	microcyticMCV     = 80.0
	macrocyticMCV     = 100.0
	mentzerThreshold  = 13.0
	thalassemiaRBCMin = 5.0
	hypochromicMCHC   = 32.0
)

// Diagnosis is the deterministic result of classifying a sample.
type Diagnosis struct {
	IsAnemic       bool           `json:"is_anemic"`
	Severity       Severity       `json:"severity"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	MorphologyType string         `json:"morphology_type"`
	MentzerIndex   float64        `json:"mentzer_index"`
	Explanations   []string       `json:"explanations"`
	Markers        []MarkerStatus `json:"markers,omitempty"`
}

// Clone returns a deep copy of the diagnosis.
func (d Diagnosis) Clone() Diagnosis {
	d.Explanations = append([]string(nil), d.Explanations...)
	if d.Markers != nil {
		d.Markers = append([]MarkerStatus(nil), d.Markers...)
	}
	return d
}

// Engine classifies samples against a checked reference table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	table  *Table
	ranges map[Marker]map[Sex]Range
}

// NewEngine fails fast when the table is not exhaustive.
func NewEngine(t *Table) (*Engine, error) {
	if err := t.Check(); err != nil {
		return nil, fmt.Errorf("reference table %q: %w", t.Version(), err)
	}
	return &Engine{table: t, ranges: t.ranges}, nil
}

// DefaultEngine returns an engine over DefaultTable.
func DefaultEngine() *Engine {
	e, err := NewEngine(DefaultTable())
	if err != nil {
		panic(err)
	}
	return e
}

// Table returns the reference table used by the engine.
func (e *Engine) Table() *Table {
	return e.table
}

// MentzerIndex returns MCV / RBC count, or 0 when the count is not positive.
func MentzerIndex(mcv, rbcCount float64) float64 {
	if rbcCount <= 0 {
		return 0
	}
	return mcv / rbcCount
}

func severityFor(hemoglobin float64) Severity {
	switch {
	case hemoglobin >= mildHemoglobinMin:
		return SeverityMild
	case hemoglobin >= moderateHemoglobinMin:
		return SeverityModerate
	}
	return SeveritySevere
}

func riskFor(sev Severity, rdw float64) RiskLevel {
	switch {
	case sev == SeveritySevere:
		return RiskHigh
	case sev == SeverityModerate || rdw > elevatedRiskRDW:
		return RiskMedium
	}
	return RiskLow
}

// Classify validates the sample and grades it. The result depends only on the
// sample and the engine's table.
func (e *Engine) Classify(s Sample) (Diagnosis, error) {
	if err := s.Validate(); err != nil {
		return Diagnosis{}, err
	}

	hb := e.ranges[MarkerHemoglobin][s.Sex]
	d := Diagnosis{
		IsAnemic:       s.Hemoglobin < hb.Low,
		Severity:       SeverityNormal,
		RiskLevel:      RiskLow,
		MorphologyType: MorphologyNone,
		MentzerIndex:   MentzerIndex(s.MCV, s.RBCCount),
		Markers:        e.profile(s),
	}
	sex := strings.ToLower(string(s.Sex))

	if !d.IsAnemic {
		d.Explanations = append(d.Explanations, fmt.Sprintf(
			"Hemoglobin of %.1f g/dL is within the healthy bound for %s patients (at least %.1f g/dL).",
			s.Hemoglobin, sex, hb.Low))
		if s.RDW > anisocytosisRDW {
			d.Explanations = append(d.Explanations, fmt.Sprintf(
				"Warning: elevated RDW of %.1f%% (anisocytosis) can be an early sign of a developing deficiency before hemoglobin drops.",
				s.RDW))
		}
		return d, nil
	}

	d.Severity = severityFor(s.Hemoglobin)
	d.RiskLevel = riskFor(d.Severity, s.RDW)

	switch {
	case s.MCV < microcyticMCV:
		if d.MentzerIndex < mentzerThreshold && s.RBCCount > thalassemiaRBCMin {
			d.MorphologyType = MorphologyThalassemiaTrait
			d.Explanations = append(d.Explanations, fmt.Sprintf(
				"Mentzer Index is %.1f (< 13) with a raised RBC count. This frequently indicates thalassemia trait rather than simple iron deficiency.",
				d.MentzerIndex))
		} else {
			d.MorphologyType = MorphologyMicrocyticHypochromic
			d.Explanations = append(d.Explanations, fmt.Sprintf(
				"Mentzer Index is %.1f. Together with small red cells this is most suggestive of iron deficiency anemia.",
				d.MentzerIndex))
		}
	case s.MCV > macrocyticMCV:
		d.MorphologyType = MorphologyMacrocytic
		d.Explanations = append(d.Explanations,
			"Elevated MCV suggests megaloblastic anemia, most often linked to vitamin B12 or folate deficiency.")
	default:
		d.MorphologyType = MorphologyNormocytic
		d.Explanations = append(d.Explanations,
			"Normal cell size with low hemoglobin suggests blood loss, chronic disease, or an early-stage deficiency.")
	}

	if s.MCHC < hypochromicMCHC {
		d.Explanations = append(d.Explanations, fmt.Sprintf(
			"Hypochromic markers detected (MCHC %.1f g/dL below 32), common in chronic iron depletion.", s.MCHC))
	}

	return d, nil
}
