// Package extraction sends the composite document image to a vision model
// and recovers a care-plan draft from its reply.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"carepilot/internal/careplan"
	"carepilot/internal/domain"
	"carepilot/internal/llm"
	"carepilot/internal/port"
)

// DefaultTemperature keeps extraction close to deterministic.
const DefaultTemperature = 0.1

var errNotObject = errors.New("response is not a JSON object")

// fencePattern matches markdown code fence delimiters, with or without a
// language tag.
var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Client issues exactly one vision call per Extract.
type Client struct {
	model       port.VisionModel
	temperature float64
	logger      zerolog.Logger
}

// NewClient creates an extraction client. A non-positive temperature uses
// DefaultTemperature.
func NewClient(model port.VisionModel, temperature float64, logger zerolog.Logger) *Client {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Client{
		model:       model,
		temperature: temperature,
		logger:      logger.With().Str("component", "extraction.Client").Logger(),
	}
}

// Extract sends payload with the intake instruction and parses the reply.
// The reply is parsed as-is first; on failure fence delimiters and any
// surrounding prose are stripped and it is parsed once more.
func (c *Client) Extract(ctx context.Context, payload domain.CompositePayload) (*careplan.Draft, error) {
	text, err := c.model.Generate(ctx, port.VisionRequest{
		Instruction: BuildIntakePrompt(),
		Image:       payload,
		Temperature: c.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, classifyCallError(err)
	}

	draft, err := ParseResponse(text)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedExtraction) {
			c.logger.Warn().
				Str("raw", llm.Truncate(text, 500)).
				Msg("extraction response could not be parsed")
		}
		return nil, err
	}
	return draft, nil
}

// ParseResponse turns model text into a draft. Empty text is an
// EmptyResponseError; text that is still not a JSON object after one
// recovery pass is a MalformedExtractionError carrying the raw text.
func ParseResponse(text string) (*careplan.Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.EmptyResponseError("model returned no text")
	}

	draft, err := decodeDraft(text)
	if err == nil {
		return draft, nil
	}

	draft, err = decodeDraft(stripWrapping(text))
	if err != nil {
		return nil, domain.MalformedExtractionError(text, err)
	}
	return draft, nil
}

func decodeDraft(text string) (*careplan.Draft, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return nil, errNotObject
	}
	var d careplan.Draft
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// stripWrapping removes code fences and anything before the first '{' or
// after the last '}'.
func stripWrapping(text string) string {
	s := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func classifyCallError(err error) error {
	var rlErr *llm.RateLimitError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.TimeoutError("extraction call", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extraction call cancelled: %w", err)
	case errors.As(err, &rlErr):
		return fmt.Errorf("extraction call: %w", err)
	default:
		return domain.CapabilityUnavailableError("extraction call failed", err)
	}
}
