// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cbc

import (
	"errors"
	"math"
	"testing"
)

func validInput() Input {
	return sample(SexFemale, 11.2, 4.3, 78, 31, 15).Input()
}

func TestInputValidate(t *testing.T) {
	t.Parallel()

	s, err := validInput().Validate()
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if s.Sex != SexFemale || s.Hemoglobin != 11.2 || s.RDW != 15 || s.Age != 30 {
		t.Fatalf("unexpected sample: %+v", s)
	}
}

func TestInputValidateRejects(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	inf := math.Inf(1)
	neg := -2.0
	zero := 0.0
	zeroAge := 0

	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"missing sex", func(in *Input) { in.Sex = "" }, "sex"},
		{"unknown sex", func(in *Input) { in.Sex = "other" }, "sex"},
		{"missing age", func(in *Input) { in.Age = nil }, "age"},
		{"zero age", func(in *Input) { in.Age = &zeroAge }, "age"},
		{"missing hemoglobin", func(in *Input) { in.Hemoglobin = nil }, "hemoglobin"},
		{"missing rdw", func(in *Input) { in.RDW = nil }, "rdw"},
		{"nan mcv", func(in *Input) { in.MCV = &nan }, "mcv"},
		{"infinite mchc", func(in *Input) { in.MCHC = &inf }, "mchc"},
		{"negative hematocrit", func(in *Input) { in.Hematocrit = &neg }, "hematocrit"},
		{"zero rbc count", func(in *Input) { in.RBCCount = &zero }, "rbc_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := validInput()
			tt.mutate(&in)

			_, err := in.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidSample) {
				t.Fatalf("expected ErrInvalidSample, got %v", err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestParseSex(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Sex{"Male": SexMale, "m": SexMale, " FEMALE ": SexFemale, "f": SexFemale} {
		got, err := ParseSex(in)
		if err != nil {
			t.Fatalf("ParseSex(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSex(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseSex("unknown"); err == nil {
		t.Fatal("expected error for unknown sex")
	}
}
