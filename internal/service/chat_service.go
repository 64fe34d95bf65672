package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"carepilot/internal/chat"
	"carepilot/internal/domain"
	"carepilot/internal/port"
)

// ChatReply is the assistant's answer. Degraded marks the fixed apology
// substituted for an unavailable assistant.
type ChatReply struct {
	Role     domain.Role `json:"role"`
	Content  string      `json:"content"`
	Degraded bool        `json:"degraded"`
}

// Turn returns the reply as a conversation turn.
func (r *ChatReply) Turn() domain.ConversationTurn {
	return domain.ConversationTurn{Role: r.Role, Content: r.Content}
}

// ChatService answers questions about a care plan.
type ChatService interface {
	Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (*ChatReply, error)
}

type chatService struct {
	responder port.GroundedResponder
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewChatService creates a new ChatService implementation.
func NewChatService(responder port.GroundedResponder, timeout time.Duration, logger zerolog.Logger) ChatService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &chatService{
		responder: responder,
		timeout:   timeout,
		logger:    logger.With().Str("component", "service.ChatService").Logger(),
	}
}

// Reply returns an error only for invalid input. When the assistant is
// unreachable the reply is the fixed apology.
func (s *chatService) Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (*ChatReply, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.responder.Reply(ctx, history, plan)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConversation) || errors.Is(err, domain.ErrNoCarePlan) {
			return nil, err
		}
		s.logger.Warn().Err(err).Int("turns", len(history)).Msg("assistant unavailable, sending apology")
		return &ChatReply{Role: domain.RoleAssistant, Content: chat.FallbackReply, Degraded: true}, nil
	}
	return &ChatReply{Role: domain.RoleAssistant, Content: content}, nil
}
