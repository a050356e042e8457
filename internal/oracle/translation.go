// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
)

// TranslationPrompt is the fixed user message used for translate requests.
func TranslationPrompt(targetLanguage string) string {
	return fmt.Sprintf(
		"Translate all foreign/non-English text visible on screen to %s. "+
			"If no foreign text is visible, say so briefly. "+
			"Be concise -- just provide the translations, grouped logically.",
		targetLanguage)
}

// =============================================================================
// OPENAI-COMPATIBLE WIRE TYPES (local provider)
// =============================================================================

type chatCompletionRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens"`
	Stream    bool         `json:"stream"`
}

type oaiMessage struct {
	Role    string           `json:"role"`
	Content []oaiContentPart `json:"content"`
}

type oaiContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// =============================================================================
// LOCAL TRANSLATION
// =============================================================================

// LocalTranslator posts translate requests to an OpenAI-compatible endpoint
// (Ollama, LM Studio). Non-streaming: the full response arrives at once.
type LocalTranslator struct {
	endpoint  string
	model     string
	maxTokens int
}

// NewLocalTranslator builds a translator for the configured local endpoint.
// maxTokens reuses the API section's response cap.
func NewLocalTranslator(endpoint, model string, maxTokens int) *LocalTranslator {
	return &LocalTranslator{endpoint: endpoint, model: model, maxTokens: maxTokens}
}

// Translate sends the screenshot with the fixed translation prompt and
// returns the model's answer. All errors carry user-visible text.
func (t *LocalTranslator) Translate(ctx context.Context, screenshot, targetLanguage string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: t.model,
		Messages: []oaiMessage{{
			Role: "user",
			Content: []oaiContentPart{
				{Type: "text", Text: TranslationPrompt(targetLanguage)},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/png;base64," + screenshot,
				}},
			},
		}},
		MaxTokens: t.maxTokens,
		Stream:    false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("Local model error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("Local model error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return "", errors.New(t.transportMessage(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Local model error (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("Failed to parse local model response: %v", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("Empty response from local model.")
	}
	return parsed.Choices[0].Message.Content, nil
}

// transportMessage converts a transport failure to the user-visible string.
// Connection refusals get the actionable "is it running" hint.
func (t *LocalTranslator) transportMessage(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Local model timed out. Is it running?"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("Cannot connect to local model at %s. Is Ollama/LM Studio running?", t.endpoint)
	}
	return fmt.Sprintf("Local model error: %v", err)
}
