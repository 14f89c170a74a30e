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

const systemPrompt = "You are a clinical hematology assistant. You explain CBC screening results " +
	"in plain language and suggest practical meals. Be informative but not alarmist. " +
	"Respond with raw JSON only: no markdown code fences and no text before or after the JSON object."

// mealCount is the number of diet plan entries requested from the model.
const mealCount = 4

func severityInstruction(sample cbc.Sample, severity cbc.Severity) string {
	switch severity {
	case cbc.SeveritySevere:
		return fmt.Sprintf("The patient has SEVERE anemia (Hb: %.1f g/dL). The diet plan must be high-potency, "+
			"focusing on maximum iron bioavailability (heme iron), vitamin C for absorption and immediate nutritional support. "+
			"Emphasize medical consultation as the top priority alongside the diet.", sample.Hemoglobin)
	case cbc.SeverityModerate:
		return fmt.Sprintf("The patient has MODERATE anemia (Hb: %.1f g/dL). Focus on a consistent, iron-dense "+
			"therapeutic diet to raise hemoglobin steadily over the next 30-60 days.", sample.Hemoglobin)
	case cbc.SeverityMild:
		return fmt.Sprintf("The patient has MILD anemia (Hb: %.1f g/dL). Provide a supportive, balanced diet to "+
			"correct minor deficiencies and prevent further drops.", sample.Hemoglobin)
	}
	return fmt.Sprintf("The patient is HEALTHY (Hb: %.1f g/dL). Do not provide a recovery diet. "+
		"Provide a wellness and maintenance plan focusing on long-term vitality.", sample.Hemoglobin)
}

// buildPrompt creates the user prompt for guidance generation
func buildPrompt(sample cbc.Sample, d cbc.Diagnosis) string {
	var sb strings.Builder

	sb.WriteString("Context: clinical hematology report analysis.\n\n")
	sb.WriteString(fmt.Sprintf("Patient: %dy %s\n", sample.Age, strings.ToLower(string(sample.Sex))))
	sb.WriteString(fmt.Sprintf("Morphology: %s\n", d.MorphologyType))
	sb.WriteString(fmt.Sprintf("Severity: %s, risk: %s\n", d.Severity, d.RiskLevel))
	sb.WriteString("\n---\n\nMarkers:\n\n")

	for _, m := range d.Markers {
		status := ""
		switch m.Status {
		case cbc.StatusLow:
			status = " [LOW]"
		case cbc.StatusHigh:
			status = " [HIGH]"
		}
		sb.WriteString(fmt.Sprintf("- %s: %.2f %s (Reference: %.2f - %.2f)%s\n",
			m.Marker.Label(), m.Value, m.Unit, m.Range.Low, m.Range.High, status))
	}

	if len(d.Explanations) > 0 {
		sb.WriteString("\nFindings:\n\n")
		for _, e := range d.Explanations {
			sb.WriteString("- " + e + "\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString("Status: " + severityInstruction(sample, d.Severity) + "\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString("1. guidance: a 2-3 sentence clinical summary explaining why these CBC markers lead to this result.\n")
	sb.WriteString(fmt.Sprintf("2. diet: %d meals (Breakfast, Lunch, Dinner, Snack/Tip), each with a list of suggestions.\n", mealCount))
	sb.WriteString("\nOutput a JSON object of the form ")
	sb.WriteString(`{"guidance": "...", "diet": [{"meal": "...", "suggestions": ["..."]}]}`)
	sb.WriteString("\n")

	return sb.String()
}
