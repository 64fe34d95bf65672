// Package mistral talks to the Mistral chat completions API. Any endpoint
// speaking the OpenAI-compatible protocol (OpenRouter, OpenAI) also works.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carepilot/internal/config"
	"carepilot/internal/llm"
	"carepilot/internal/port"
)

const (
	apiURL       = "https://api.mistral.ai/v1/chat/completions"
	providerName = "mistral"
	defaultModel = "pixtral-12b-2409"
)

// Client implements port.Provider over chat completions.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a client from a provider config. A configured endpoint
// overrides the Mistral default.
func NewClient(cfg *config.ProviderConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return providerName }

// Generate sends one user message holding the instruction and the image.
func (c *Client) Generate(ctx context.Context, req port.VisionRequest) (string, error) {
	reqBody := map[string]interface{}{
		"model":       c.model,
		"temperature": req.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": req.Instruction,
					},
					{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url": req.Image.DataURI(),
						},
					},
				},
			},
		},
	}
	if req.JSONMode {
		reqBody["response_format"] = map[string]interface{}{"type": "json_object"}
	}
	return c.do(ctx, reqBody)
}

// Complete sends the system directive followed by the conversation turns.
func (c *Client) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	messages := make([]map[string]interface{}, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, map[string]interface{}{"role": "system", "content": req.System})
	}
	for _, turn := range req.Turns {
		messages = append(messages, map[string]interface{}{"role": string(turn.Role), "content": turn.Content})
	}
	return c.do(ctx, map[string]interface{}{
		"model":       c.model,
		"temperature": req.Temperature,
		"messages":    messages,
	})
}

func (c *Client) do(ctx context.Context, reqBody map[string]interface{}) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling mistral API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("mistral API error (status %d): %s", resp.StatusCode, llm.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return "", baseErr
	}

	return parseResponse(respBody)
}

// apiResponse models the chat completions response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// parseResponse returns the first choice's text. No choices, or a null
// content, yields an empty string; the caller decides what that means.
func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return contentText(resp.Choices[0].Message.Content)
}

// contentText accepts both a plain string and an array of typed chunks.
func contentText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var chunks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return "", fmt.Errorf("unmarshaling message content: %w", err)
	}
	var sb strings.Builder
	for _, chunk := range chunks {
		if chunk.Type == "" || chunk.Type == "text" {
			sb.WriteString(chunk.Text)
		}
	}
	return sb.String(), nil
}
