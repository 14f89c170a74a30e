/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"fmt"
	"strings"

	"github.com/humaidq/hemoscan/cbc"
)

// Fallback returns the canned guidance used when augmentation fails. It has
// the same shape as a model response and always passes Validate.
func Fallback(severity cbc.Severity) Guidance {
	return Guidance{
		Text: fmt.Sprintf(
			"AI analysis is temporarily unavailable. Based on standard clinical guidelines for %s anemia, focus on iron-rich foods and consult a physician.",
			strings.ToLower(string(severity))),
		DietPlan: []Meal{
			{Label: "Nutrition Tip", Suggestions: []string{
				"Increase intake of red meats, legumes, and dark leafy greens.",
				"Pair iron-rich foods with vitamin C for better absorption.",
			}},
			{Label: "Breakfast Idea", Suggestions: []string{"Iron-fortified oatmeal with strawberries."}},
			{Label: "Lunch Idea", Suggestions: []string{"Lentil soup with a squeeze of lemon."}},
			{Label: "Dinner Idea", Suggestions: []string{"Grilled spinach and chicken breast."}},
		},
	}
}
