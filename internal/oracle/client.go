// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package oracle implements the Gemini streaming client and the local
// translation fallback.
//
// Every request runs on a background task; results flow back to the UI
// through generation-checked state writes performed by the caller's sink.
// All errors carry user-visible text; the render loop displays err.Error()
// in the status line verbatim.
package oracle

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/state"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the Gemini REST endpoint prefix.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// RequestTimeout bounds the entire request including streaming.
	RequestTimeout = 120 * time.Second

	// maxHistoryMessages caps the conversation sent upstream. Older turns
	// are trimmed to avoid huge payloads (especially with screenshots) and
	// runaway token costs.
	maxHistoryMessages = 50
)

// sharedHTTPClient is reused across all requests for connection pooling.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: RequestTimeout,
}

// ErrCancelled is returned when the sink reports the request's generation
// has been superseded. The caller must not write any further state.
var ErrCancelled = errors.New("cancelled")

// ChunkSink receives each streamed text fragment. It returns false when the
// request is no longer current, which aborts the stream.
type ChunkSink func(fragment string) bool

// Client issues streaming generate-content requests.
type Client struct {
	cfg     config.APIConfig
	baseURL string
}

// NewClient builds a client from the API configuration snapshot.
func NewClient(cfg config.APIConfig) *Client {
	return &Client{cfg: cfg, baseURL: DefaultBaseURL}
}

// WithBaseURL overrides the endpoint prefix. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// =============================================================================
// REQUEST / RESPONSE WIRE TYPES
// =============================================================================

type geminiRequest struct {
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	Contents          []content          `json:"contents"`
	GenerationConfig  generationConfig   `json:"generationConfig"`
	SafetySettings    []safetySetting    `json:"safetySettings,omitempty"`
	Tools             []tool             `json:"tools"`
}

type systemInstruction struct {
	Parts []part `json:"parts"`
}

type content struct {
	Role  string `json:"role"` // "user" or "model"
	Parts []part `json:"parts"`
}

// part is a union: exactly one of Text or InlineData is set.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// tool enables grounding via web search.
type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// textFragment joins all candidate part texts of one SSE chunk.
func (r *geminiResponse) textFragment() string {
	var b strings.Builder
	for _, cand := range r.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// =============================================================================
// REQUEST ASSEMBLY
// =============================================================================

// trimHistory keeps the most recent maxHistoryMessages turns. If the oldest
// surviving turn is an assistant message it is dropped too: the API requires
// the contents array to begin with a user turn.
func trimHistory(msgs []state.Message) []state.Message {
	if len(msgs) <= maxHistoryMessages {
		return msgs
	}
	start := len(msgs) - maxHistoryMessages
	if msgs[start].Role == state.RoleAssistant {
		start++
	}
	return msgs[start:]
}

// systemText prepends the game identity to the configured system prompt.
func systemText(gameName, prompt string) string {
	if gameName == "" {
		return prompt
	}
	return fmt.Sprintf("The user is currently playing %s. %s", gameName, prompt)
}

// harmCategories covered by every safety filter level.
var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// safetySettings maps the config filter level to API thresholds. "off" (and
// anything unrecognized) omits the settings entirely, leaving API defaults.
func safetySettings(filter string) []safetySetting {
	var threshold string
	switch filter {
	case "block-high":
		threshold = "BLOCK_ONLY_HIGH"
	case "block-medium":
		threshold = "BLOCK_MEDIUM_AND_ABOVE"
	case "block-low":
		threshold = "BLOCK_LOW_AND_ABOVE"
	default:
		return nil
	}
	settings := make([]safetySetting, 0, len(harmCategories))
	for _, cat := range harmCategories {
		settings = append(settings, safetySetting{Category: cat, Threshold: threshold})
	}
	return settings
}

// buildRequest assembles the wire document. The screenshot, when present,
// attaches to the last user message only.
func (c *Client) buildRequest(history []state.Message, screenshot, gameName string) geminiRequest {
	history = trimHistory(history)

	contents := make([]content, 0, len(history))
	for i, msg := range history {
		role := "user"
		if msg.Role == state.RoleAssistant {
			role = "model"
		}

		parts := []part{{Text: msg.Content}}
		lastUser := msg.Role == state.RoleUser && i == len(history)-1
		if lastUser && screenshot != "" {
			parts = append(parts, part{InlineData: &inlineData{
				MimeType: "image/png",
				Data:     screenshot,
			}})
		}
		contents = append(contents, content{Role: role, Parts: parts})
	}

	req := geminiRequest{
		Contents:         contents,
		GenerationConfig: generationConfig{MaxOutputTokens: c.cfg.MaxTokens},
		SafetySettings:   safetySettings(c.cfg.SafetyFilter),
		Tools:            []tool{{}},
	}
	if text := systemText(gameName, c.cfg.SystemPrompt); text != "" {
		req.SystemInstruction = &systemInstruction{Parts: []part{{Text: text}}}
	}
	return req
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// statusMessage converts an HTTP error status to the user-visible string.
func statusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Bad request. Try a shorter message."
	case http.StatusForbidden:
		return "Invalid API key."
	case http.StatusTooManyRequests:
		return "Rate limited."
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return "API server error. Try again."
	default:
		return fmt.Sprintf("API error (HTTP %d).", code)
	}
}

// transportMessage converts a transport failure to the user-visible string.
func transportMessage(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timed out. Try again."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out. Try again."
	}
	return fmt.Sprintf("Network error: %v", err)
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// Send issues a streaming generate-content request with the trimmed
// conversation and optional screenshot. Every non-empty text fragment is
// handed to sink; when sink returns false the stream aborts with
// ErrCancelled. On success the full accumulated text is returned.
func (c *Client) Send(ctx context.Context, history []state.Message, screenshot, gameName string, sink ChunkSink) (string, error) {
	if strings.TrimSpace(c.cfg.Key) == "" {
		return "", errors.New("No API key configured. Add your key to config.toml.")
	}

	bodyBytes, err := json.Marshal(c.buildRequest(history, screenshot, gameName))
	if err != nil {
		return "", fmt.Errorf("Network error: %v", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("Network error: %v", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.Key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return "", errors.New(transportMessage(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(statusMessage(resp.StatusCode))
	}

	full, err := c.processStream(resp.Body, sink)
	if err != nil {
		return "", err
	}
	if full == "" {
		return "", errors.New("Empty response from API.")
	}
	return full, nil
}

// processStream reads SSE lines, accumulating the text fragments. Malformed
// JSON chunks are skipped rather than failing the whole request.
func (c *Client) processStream(body io.Reader, sink ChunkSink) (string, error) {
	var full strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		fragment := chunk.textFragment()
		if fragment == "" {
			continue
		}
		full.WriteString(fragment)
		if !sink(fragment) {
			return "", ErrCancelled
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.New(transportMessage(err))
	}
	return full.String(), nil
}
