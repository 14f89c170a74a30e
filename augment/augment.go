/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package augment enriches a deterministic diagnosis with model-generated
// guidance and a diet plan.
package augment

import (
	"context"
	"fmt"
	"strings"

	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/logging"
)

var logger = logging.Logger(logging.SourceAugment)

// Meal is one entry of a diet plan.
type Meal struct {
	Label       string   `json:"meal"`
	Suggestions []string `json:"suggestions"`
}

// Guidance is the payload produced by an Augmenter.
type Guidance struct {
	Text     string `json:"guidance"`
	DietPlan []Meal `json:"diet"`
}

// Validate reports ErrMalformed when a required field is missing.
func (g Guidance) Validate() error {
	if strings.TrimSpace(g.Text) == "" {
		return fmt.Errorf("%w: guidance is empty", ErrMalformed)
	}
	if len(g.DietPlan) == 0 {
		return fmt.Errorf("%w: diet plan is empty", ErrMalformed)
	}
	for i, m := range g.DietPlan {
		if strings.TrimSpace(m.Label) == "" {
			return fmt.Errorf("%w: meal %d has no label", ErrMalformed, i)
		}
		if len(m.Suggestions) == 0 {
			return fmt.Errorf("%w: meal %q has no suggestions", ErrMalformed, m.Label)
		}
		for _, s := range m.Suggestions {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%w: meal %q has an empty suggestion", ErrMalformed, m.Label)
			}
		}
	}
	return nil
}

// Augmenter produces guidance for a classified sample. Implementations bound
// their own wait and wrap every failure in ErrUnavailable.
type Augmenter interface {
	Augment(ctx context.Context, sample cbc.Sample, diagnosis cbc.Diagnosis) (Guidance, error)
}

// Func adapts a function to the Augmenter interface.
type Func func(ctx context.Context, sample cbc.Sample, diagnosis cbc.Diagnosis) (Guidance, error)

// Augment calls f.
func (f Func) Augment(ctx context.Context, sample cbc.Sample, diagnosis cbc.Diagnosis) (Guidance, error) {
	return f(ctx, sample, diagnosis)
}

// Disabled always fails, so every analysis settles on fallback content.
type Disabled struct{}

// Augment returns ErrUnavailable.
func (Disabled) Augment(context.Context, cbc.Sample, cbc.Diagnosis) (Guidance, error) {
	return Guidance{}, fmt.Errorf("%w: augmentation disabled", ErrUnavailable)
}

// Source records where the guidance of a settled result came from.
type Source string

// Guidance sources.
const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is a diagnosis with optional guidance. Guidance and DietPlan are nil
// until augmentation settles.
type Result struct {
	cbc.Diagnosis
	Guidance *string `json:"guidance,omitempty"`
	DietPlan []Meal  `json:"diet_plan,omitempty"`
	Source   Source  `json:"source,omitempty"`
}

// Local wraps a diagnosis that has not been augmented yet.
func Local(d cbc.Diagnosis) Result {
	return Result{Diagnosis: d.Clone()}
}

// Settled reports whether guidance and diet plan are present.
func (r Result) Settled() bool {
	return r.Guidance != nil && r.DietPlan != nil
}

// Merge returns a copy of r carrying g.
func (r Result) Merge(g Guidance, src Source) Result {
	text := g.Text
	out := Result{
		Diagnosis: r.Diagnosis.Clone(),
		Guidance:  &text,
		DietPlan:  cloneMeals(g.DietPlan),
		Source:    src,
	}
	return out
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	out := r
	out.Diagnosis = r.Diagnosis.Clone()
	if r.Guidance != nil {
		text := *r.Guidance
		out.Guidance = &text
	}
	if r.DietPlan != nil {
		out.DietPlan = cloneMeals(r.DietPlan)
	}
	return out
}

func cloneMeals(meals []Meal) []Meal {
	out := make([]Meal, len(meals))
	for i, m := range meals {
		out[i] = Meal{Label: m.Label, Suggestions: append([]string(nil), m.Suggestions...)}
	}
	return out
}
