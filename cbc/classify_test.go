// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cbc

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample(sex Sex, hb, rbc, mcv, mchc, rdw float64) Sample {
	return Sample{
		Sex:        sex,
		Age:        30,
		Hemoglobin: hb,
		RBCCount:   rbc,
		Hematocrit: 40,
		MCV:        mcv,
		MCH:        28,
		MCHC:       mchc,
		RDW:        rdw,
	}
}

func classify(t *testing.T, s Sample) Diagnosis {
	t.Helper()

	d, err := DefaultEngine().Classify(s)
	if err != nil {
		t.Fatalf("Classify(%+v) failed: %v", s, err)
	}
	return d
}

func containsExplanation(d Diagnosis, substr string) bool {
	for _, e := range d.Explanations {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestClassifyExamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sample      Sample
		anemic      bool
		severity    Severity
		risk        RiskLevel
		morphology  string
		mustExplain []string
	}{
		{
			name:        "female microcytic hypochromic",
			sample:      Sample{Sex: SexFemale, Age: 30, Hemoglobin: 10.5, RBCCount: 4.5, Hematocrit: 33, MCV: 70, MCH: 25, MCHC: 30, RDW: 14},
			anemic:      true,
			severity:    SeverityModerate,
			risk:        RiskMedium,
			morphology:  MorphologyMicrocyticHypochromic,
			mustExplain: []string{"Mentzer Index is 15.6", "iron deficiency", "Hypochromic"},
		},
		{
			name:        "male moderate thalassemia trait",
			sample:      Sample{Sex: SexMale, Age: 40, Hemoglobin: 9.0, RBCCount: 5.5, Hematocrit: 30, MCV: 70, MCH: 25, MCHC: 33, RDW: 13},
			anemic:      true,
			severity:    SeverityModerate,
			risk:        RiskMedium,
			morphology:  MorphologyThalassemiaTrait,
			mustExplain: []string{"Mentzer Index is 12.7", "thalassemia trait"},
		},
		{
			name:        "female healthy with anisocytosis",
			sample:      Sample{Sex: SexFemale, Age: 25, Hemoglobin: 14.0, RBCCount: 4.6, Hematocrit: 40, MCV: 88, MCH: 29, MCHC: 33, RDW: 17},
			anemic:      false,
			severity:    SeverityNormal,
			risk:        RiskLow,
			morphology:  MorphologyNone,
			mustExplain: []string{"healthy bound", "anisocytosis"},
		},
		{
			name:       "male severe",
			sample:     Sample{Sex: SexMale, Age: 55, Hemoglobin: 7.0, RBCCount: 3.1, Hematocrit: 22, MCV: 90, MCH: 29, MCHC: 33, RDW: 12},
			anemic:     true,
			severity:   SeveritySevere,
			risk:       RiskHigh,
			morphology: MorphologyNormocytic,
		},
		{
			name:        "macrocytic",
			sample:      Sample{Sex: SexMale, Age: 70, Hemoglobin: 12.0, RBCCount: 3.5, Hematocrit: 36, MCV: 110, MCH: 34, MCHC: 33, RDW: 13},
			anemic:      true,
			severity:    SeverityMild,
			risk:        RiskLow,
			morphology:  MorphologyMacrocytic,
			mustExplain: []string{"B12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := classify(t, tt.sample)
			if d.IsAnemic != tt.anemic {
				t.Fatalf("expected anemic=%v, got %v", tt.anemic, d.IsAnemic)
			}
			if d.Severity != tt.severity {
				t.Fatalf("expected severity %s, got %s", tt.severity, d.Severity)
			}
			if d.RiskLevel != tt.risk {
				t.Fatalf("expected risk %s, got %s", tt.risk, d.RiskLevel)
			}
			if d.MorphologyType != tt.morphology {
				t.Fatalf("expected morphology %q, got %q", tt.morphology, d.MorphologyType)
			}
			for _, want := range tt.mustExplain {
				if !containsExplanation(d, want) {
					t.Fatalf("expected an explanation containing %q, got %q", want, d.Explanations)
				}
			}
		})
	}
}

// Hb 10.5 is graded by the severity bins alone: 8 <= Hb < 11 is Moderate.
func TestClassifyWorkedExampleOne(t *testing.T) {
	t.Parallel()

	d := classify(t, Sample{Sex: SexFemale, Age: 30, Hemoglobin: 10.5, RBCCount: 4.5, Hematocrit: 33, MCV: 70, MCH: 25, MCHC: 30, RDW: 14})
	if !d.IsAnemic {
		t.Fatal("expected anemia")
	}
	if d.MorphologyType != MorphologyMicrocyticHypochromic {
		t.Fatalf("expected %q, got %q", MorphologyMicrocyticHypochromic, d.MorphologyType)
	}
	if len(d.Explanations) != 2 {
		t.Fatalf("expected morphology and hypochromia explanations, got %q", d.Explanations)
	}
}

func TestSeverityBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hb   float64
		want Severity
	}{
		{11.0, SeverityMild},
		{10.99, SeverityModerate},
		{8.0, SeverityModerate},
		{7.99, SeveritySevere},
		{3.0, SeveritySevere},
	}

	for _, tt := range tests {
		d := classify(t, sample(SexMale, tt.hb, 4.8, 90, 33, 13))
		if d.Severity != tt.want {
			t.Fatalf("hb %.2f: expected %s, got %s", tt.hb, tt.want, d.Severity)
		}
	}
}

func TestClassifyProperties(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	engine := DefaultEngine()

	for _, sex := range []Sex{SexMale, SexFemale} {
		hbRange, err := table.RangeFor(MarkerHemoglobin, sex)
		if err != nil {
			t.Fatalf("RangeFor failed: %v", err)
		}

		for hb := 2.0; hb <= 20.0; hb += 0.25 {
			for _, rdw := range []float64{10, 15, 15.5, 16, 16.5, 22} {
				for _, mcv := range []float64{60, 79.9, 80, 100, 100.1, 120} {
					for _, rbc := range []float64{3, 5, 5.01, 6.5} {
						s := sample(sex, hb, rbc, mcv, 31, rdw)
						d, err := engine.Classify(s)
						if err != nil {
							t.Fatalf("Classify failed: %v", err)
						}

						if len(d.Explanations) == 0 {
							t.Fatalf("%+v: explanations empty", s)
						}
						if d.IsAnemic != (hb < hbRange.Low) {
							t.Fatalf("%+v: anemic=%v with low bound %.1f", s, d.IsAnemic, hbRange.Low)
						}
						if !d.IsAnemic && (d.Severity != SeverityNormal || d.RiskLevel != RiskLow) {
							t.Fatalf("%+v: non-anemic graded %s/%s", s, d.Severity, d.RiskLevel)
						}
						if d.Severity != SeverityNormal && !d.IsAnemic {
							t.Fatalf("%+v: severity %s without anemia", s, d.Severity)
						}
						if (d.RiskLevel == RiskHigh) != (d.Severity == SeveritySevere) {
							t.Fatalf("%+v: risk %s with severity %s", s, d.RiskLevel, d.Severity)
						}
						if d.IsAnemic && (d.Severity == SeverityModerate || rdw > 16) && d.RiskLevel == RiskLow {
							t.Fatalf("%+v: risk should be at least Medium", s)
						}
						if d.RiskLevel == RiskLow && d.IsAnemic && (d.Severity != SeverityMild || rdw > 16) {
							t.Fatalf("%+v: Low risk requires Mild severity and RDW <= 16", s)
						}
					}
				}
			}
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	s := sample(SexFemale, 9.4, 5.2, 72, 30, 17)
	first := classify(t, s)
	second := classify(t, s)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classification differs between calls (-first +second):\n%s", diff)
	}
}

func TestRDWDoesNotChangeHealthyGrade(t *testing.T) {
	t.Parallel()

	calm := classify(t, sample(SexFemale, 14, 4.6, 88, 33, 13))
	varied := classify(t, sample(SexFemale, 14, 4.6, 88, 33, 17))

	if calm.Severity != varied.Severity || calm.RiskLevel != varied.RiskLevel {
		t.Fatalf("RDW changed grading: %s/%s vs %s/%s", calm.Severity, calm.RiskLevel, varied.Severity, varied.RiskLevel)
	}
	if len(varied.Explanations) != len(calm.Explanations)+1 {
		t.Fatalf("expected one extra explanation, got %q vs %q", varied.Explanations, calm.Explanations)
	}
}

func TestElevatedHemoglobinIsNotFlagged(t *testing.T) {
	t.Parallel()

	d := classify(t, sample(SexMale, 19.5, 6.2, 90, 34, 13))
	if d.IsAnemic || d.Severity != SeverityNormal {
		t.Fatalf("expected normal result for high hemoglobin, got %+v", d)
	}
}

func TestThalassemiaRequiresRaisedRBC(t *testing.T) {
	t.Parallel()

	// Mentzer 60/5.0 = 12 but the count is not above 5.
	d := classify(t, sample(SexMale, 10, 5.0, 60, 33, 13))
	if d.MorphologyType != MorphologyMicrocyticHypochromic {
		t.Fatalf("expected %q, got %q", MorphologyMicrocyticHypochromic, d.MorphologyType)
	}
	if !containsExplanation(d, "Mentzer Index is 12.0") {
		t.Fatalf("expected rounded index in explanation, got %q", d.Explanations)
	}
}

func TestHypochromiaIsAdditive(t *testing.T) {
	t.Parallel()

	for _, mcv := range []float64{70, 90, 110} {
		with := classify(t, sample(SexMale, 10, 4.0, mcv, 30, 13))
		without := classify(t, sample(SexMale, 10, 4.0, mcv, 33, 13))

		if with.MorphologyType != without.MorphologyType {
			t.Fatalf("MCHC changed morphology for MCV %.0f", mcv)
		}
		if !containsExplanation(with, "Hypochromic") || containsExplanation(without, "Hypochromic") {
			t.Fatalf("hypochromia note mismatch for MCV %.0f: %q / %q", mcv, with.Explanations, without.Explanations)
		}
	}
}

func TestMentzerIndexGuard(t *testing.T) {
	t.Parallel()

	if got := MentzerIndex(70, 0); got != 0 {
		t.Fatalf("expected 0 for zero RBC, got %v", got)
	}
	if got := MentzerIndex(70, -1); got != 0 {
		t.Fatalf("expected 0 for negative RBC, got %v", got)
	}
	if got := MentzerIndex(70, 3.5); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestClassifyRejectsInvalidSample(t *testing.T) {
	t.Parallel()

	s := sample(SexMale, 10, 0, 90, 33, 13)
	if _, err := DefaultEngine().Classify(s); err == nil {
		t.Fatal("expected validation error for zero RBC count")
	}
}

func TestMarkerProfile(t *testing.T) {
	t.Parallel()

	d := classify(t, sample(SexFemale, 10.5, 4.5, 70, 30, 14))
	if len(d.Markers) != len(Markers) {
		t.Fatalf("expected %d marker rows, got %d", len(Markers), len(d.Markers))
	}

	got := map[Marker]RangeStatus{}
	for _, m := range d.Markers {
		got[m.Marker] = m.Status
	}

	want := map[Marker]RangeStatus{
		MarkerHemoglobin: StatusLow,
		MarkerRBCCount:   StatusNormal,
		MarkerHematocrit: StatusNormal,
		MarkerMCV:        StatusLow,
		MarkerMCH:        StatusNormal,
		MarkerMCHC:       StatusLow,
		MarkerRDW:        StatusNormal,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("marker statuses mismatch (-want +got):\n%s", diff)
	}
}
