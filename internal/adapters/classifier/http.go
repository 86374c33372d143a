// Package classifier provides external work-category classifiers for
// activity records. The HTTP client speaks the OpenAI-compatible
// chat-completions protocol, so it works against hosted APIs and local
// model servers (Ollama, llama.cpp) alike.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// defaultTimeout bounds one classification call when no timeout is configured.
const defaultTimeout = 15 * time.Second

// systemPrompt instructs the model to answer with exactly one category word.
const systemPrompt = "You label household activity records with the single " +
	"cognitive-labor category they belong to. Answer with exactly one of: " +
	"scheduling, planning, logistics, finances, healthcare, social, " +
	"emotional_support, general. Output only the category word."

// HTTPOptions configures an HTTP chat-completions classifier.
type HTTPOptions struct {
	// Endpoint is the full chat-completions URL, e.g.
	// https://api.openai.com/v1/chat/completions.
	Endpoint string
	// Model names the model to request.
	Model string
	// APIKeyEnv names the environment variable holding the bearer token.
	// Empty means no Authorization header, which local servers accept.
	APIKeyEnv string
	// Timeout bounds one classification call. Zero means defaultTimeout.
	Timeout time.Duration
}

// HTTPClient classifies activity records by asking a chat-completions
// endpoint for a single category word.
type HTTPClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewHTTPClient builds a classifier client from options. The API key is read
// from the named environment variable once at construction time.
func NewHTTPClient(opts HTTPOptions) (*HTTPClient, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("classifier model is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	apiKey := ""
	if opts.APIKeyEnv != "" {
		apiKey = strings.TrimSpace(os.Getenv(opts.APIKeyEnv))
		if apiKey == "" {
			return nil, fmt.Errorf("classifier API key env %s is empty", opts.APIKeyEnv)
		}
	}

	return &HTTPClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// chatRequest is the wire request for a chat-completions call.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire response from a chat-completions call.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model for the category of one activity record. The
// response must be a recognized category word; anything else is an error and
// the caller falls back to its default category.
func (c *HTTPClient) Classify(ctx context.Context, rec domain.ActivityRecord) (domain.WorkCategory, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.describe(rec)},
		},
		Temperature: 0,
		MaxTokens:   8,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal classify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build classify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classify call failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse classify response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("classify response has no choices")
	}

	category := domain.NormalizeCategory(domain.WorkCategory(parsed.Choices[0].Message.Content))
	if !domain.IsValidCategory(category) {
		return "", fmt.Errorf("model returned unknown category %q", category)
	}
	return category, nil
}

// describe renders one record as the user message. Only content and a few
// structural hints go over the wire; timestamps and ids stay local.
func (c *HTTPClient) describe(rec domain.ActivityRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record type: %s\n", rec.Type)
	fmt.Fprintf(&b, "Content: %s\n", rec.Content)
	if len(rec.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.Participants > 0 {
		fmt.Fprintf(&b, "Participants: %d\n", rec.Participants)
	}
	return b.String()
}
