/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/humaidq/hemoscan/cbc"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini augmenter.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Gemini generates guidance with Google's Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a new Gemini augmenter.
func NewGemini(ctx context.Context, config GeminiConfig) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, errGeminiKeyRequired
	}
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{client: client, model: config.Model, timeout: config.Timeout}, nil
}

// guidanceSchema mirrors Guidance so the model is constrained to a decodable shape.
func guidanceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"guidance": {Type: genai.TypeString},
			"diet": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"meal": {Type: genai.TypeString},
						"suggestions": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"meal", "suggestions"},
				},
			},
		},
		Required: []string{"guidance", "diet"},
	}
}

// Augment requests guidance for the diagnosis.
func (g *Gemini) Augment(ctx context.Context, sample cbc.Sample, d cbc.Diagnosis) (Guidance, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    guidanceSchema(),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(sample, d)), config)
	if err != nil {
		return Guidance{}, unavailable("gemini", fmt.Errorf("GenAI generate failed: %w", err))
	}

	out, err := decodeGuidance(resp.Text())
	if err != nil {
		return Guidance{}, unavailable("gemini", err)
	}

	logger.Debug("Gemini guidance received", "model", g.model, "duration_ms", time.Since(start).Milliseconds())

	return out, nil
}
