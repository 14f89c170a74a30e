/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeGuidance parses a model response. Models sometimes wrap JSON in a
// markdown code fence even when asked not to.
func decodeGuidance(text string) (Guidance, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return Guidance{}, fmt.Errorf("%w: %w", ErrMalformed, errEmptyResponse)
	}

	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		clean = strings.TrimSpace(clean)
	}

	var g Guidance
	if err := json.Unmarshal([]byte(clean), &g); err != nil {
		return Guidance{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := g.Validate(); err != nil {
		return Guidance{}, err
	}
	return g, nil
}
