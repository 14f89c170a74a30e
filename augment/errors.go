/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every augmentation failure: transport, timeout,
	// rate limit, schema or parse.
	ErrUnavailable = errors.New("augmentation unavailable")
	// ErrMalformed reports a response that decoded but misses required fields.
	ErrMalformed = fmt.Errorf("%w: malformed response", ErrUnavailable)

	errOllamaConfigIncomplete = errors.New("Ollama configuration incomplete: URL and model must be set")
	errGeminiKeyRequired      = errors.New("Gemini API key is required")
	errAnthropicKeyRequired   = errors.New("Anthropic API key is required")
	errEmptyResponse          = errors.New("empty response")
)

func unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
