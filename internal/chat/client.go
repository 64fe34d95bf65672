package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"carepilot/internal/domain"
	"carepilot/internal/port"
)

// DefaultTemperature is the sampling temperature for conversational replies.
const DefaultTemperature = 0.7

// Client produces one grounded reply per call.
type Client struct {
	model       port.ChatModel
	temperature float64
	policy      HistoryPolicy
	logger      zerolog.Logger
}

// NewClient creates a chat client. A non-positive temperature uses
// DefaultTemperature.
func NewClient(model port.ChatModel, temperature float64, policy HistoryPolicy, logger zerolog.Logger) *Client {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Client{
		model:       model,
		temperature: temperature,
		policy:      policy,
		logger:      logger.With().Str("component", "chat.Client").Logger(),
	}
}

// Reply sends the grounding directive and the bounded history and returns
// the assistant's text. Transport failures and empty replies are
// ChatUnavailableError; an expired deadline is TimeoutError.
func (c *Client) Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (string, error) {
	if err := ValidateHistory(history); err != nil {
		return "", err
	}
	directive, err := BuildDirective(plan)
	if err != nil {
		return "", err
	}

	turns := c.policy.Bound(history)
	if dropped := len(history) - len(turns); dropped > 0 {
		c.logger.Debug().Int("dropped_turns", dropped).Msg("bounded conversation history")
	}

	reply, err := c.model.Complete(ctx, port.ChatRequest{
		System:      directive,
		Turns:       turns,
		Temperature: c.temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.TimeoutError("chat call", err)
		}
		return "", domain.ChatUnavailableError("chat call failed", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", domain.ChatUnavailableError("model returned an empty reply", nil)
	}
	return reply, nil
}
