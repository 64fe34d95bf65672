// Package claude talks to the Anthropic Messages API.
package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carepilot/internal/config"
	"carepilot/internal/domain"
	"carepilot/internal/llm"
	"carepilot/internal/port"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	providerName = "claude"
	defaultModel = "claude-sonnet-4-20250514"
	maxTokens    = 4096
)

// Client implements port.Provider using the Anthropic Messages API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a client from a provider config.
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

// Generate sends the image followed by the instruction. The API has no JSON
// mode, so JSONMode only relies on the instruction.
func (c *Client) Generate(ctx context.Context, req port.VisionRequest) (string, error) {
	blocks := []map[string]interface{}{
		{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": req.Image.MediaType,
				"data":       base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		},
		{
			"type": "text",
			"text": req.Instruction,
		},
	}
	return c.do(ctx, map[string]interface{}{
		"model":       c.model,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]interface{}{
			{"role": "user", "content": blocks},
		},
	})
}

// Complete sends the directive as the system prompt and the conversation as
// alternating messages.
func (c *Client) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	turns := alternate(req.Turns)
	messages := make([]map[string]interface{}, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, map[string]interface{}{"role": string(t.Role), "content": t.Content})
	}
	body := map[string]interface{}{
		"model":       c.model,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"messages":    messages,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	return c.do(ctx, body)
}

// alternate drops leading assistant turns and merges consecutive turns of
// the same role; the API requires a user-first, strictly alternating list.
func alternate(turns []domain.ConversationTurn) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, 0, len(turns))
	for _, t := range turns {
		if len(out) == 0 && t.Role != domain.RoleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == t.Role {
			out[n-1].Content += "\n\n" + t.Content
			continue
		}
		out = append(out, t)
	}
	return out
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
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, llm.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return "", baseErr
	}

	return parseResponse(respBody)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// parseResponse joins the text blocks. A truncated reply is an error since
// half a care plan is not valid JSON anyway.
func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if resp.StopReason == "max_tokens" {
		return "", fmt.Errorf("output truncated (stop_reason: max_tokens)")
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
