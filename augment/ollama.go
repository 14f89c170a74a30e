/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/humaidq/hemoscan/cbc"
)

// DefaultTimeout bounds a single augmentation call when a client config
// leaves Timeout unset.
const DefaultTimeout = 30 * time.Second

// OllamaConfig holds the Ollama server configuration
type OllamaConfig struct {
	URL        string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAI-compatible request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Ollama calls an OpenAI-compatible chat completions endpoint.
type Ollama struct {
	config OllamaConfig
	client *http.Client
}

// NewOllama validates the configuration and returns a client.
func NewOllama(config OllamaConfig) (*Ollama, error) {
	if config.URL == "" || config.Model == "" {
		return nil, errOllamaConfigIncomplete
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Ollama{config: config, client: client}, nil
}

// Augment requests guidance for the diagnosis.
func (o *Ollama) Augment(ctx context.Context, sample cbc.Sample, d cbc.Diagnosis) (Guidance, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       o.config.Model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(sample, d)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("failed to marshal request: %w", err))
	}

	endpoint := strings.TrimSuffix(o.config.URL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("failed to call Ollama: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return Guidance{}, unavailable("ollama", fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("%w: %w", ErrMalformed, err))
	}

	if chatResp.Error != nil {
		return Guidance{}, unavailable("ollama", fmt.Errorf("Ollama error: %s", chatResp.Error.Message))
	}

	if len(chatResp.Choices) == 0 {
		return Guidance{}, unavailable("ollama", fmt.Errorf("%w: %w", ErrMalformed, errEmptyResponse))
	}

	g, err := decodeGuidance(chatResp.Choices[0].Message.Content)
	if err != nil {
		return Guidance{}, unavailable("ollama", err)
	}

	logger.Debug("Ollama guidance received", "model", o.config.Model, "duration_ms", time.Since(start).Milliseconds())

	return g, nil
}
