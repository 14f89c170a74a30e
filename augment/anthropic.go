/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/humaidq/hemoscan/cbc"
)

// DefaultAnthropicModel is used when AnthropicConfig.Model is empty.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

const anthropicMaxTokens = 1024

// AnthropicConfig configures the Anthropic augmenter.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Anthropic generates guidance with the Anthropic Messages API.
type Anthropic struct {
	client  sdk.Client
	model   string
	timeout time.Duration
}

// NewAnthropic creates an Anthropic augmenter. SDK retries are disabled so
// each analysis makes exactly one attempt.
func NewAnthropic(config AnthropicConfig) (*Anthropic, error) {
	if config.APIKey == "" {
		return nil, errAnthropicKeyRequired
	}
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Anthropic{
		client:  sdk.NewClient(opts...),
		model:   config.Model,
		timeout: config.Timeout,
	}, nil
}

// Augment requests guidance for the diagnosis.
func (a *Anthropic) Augment(ctx context.Context, sample cbc.Sample, d cbc.Diagnosis) (Guidance, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := sdk.MessageNewParams{
		Model:       sdk.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(sample, d)))},
		Temperature: sdk.Float(0.2),
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Guidance{}, unavailable("anthropic", fmt.Errorf("create message: %w", err))
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out, err := decodeGuidance(text.String())
	if err != nil {
		return Guidance{}, unavailable("anthropic", err)
	}

	logger.Debug("Anthropic guidance received",
		"model", a.model,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return out, nil
}
