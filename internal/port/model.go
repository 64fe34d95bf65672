package port

import (
	"context"

	"carepilot/internal/domain"
)

// VisionRequest is one extraction call: a fixed instruction plus the
// composite image. Built fresh per call.
type VisionRequest struct {
	Instruction string
	Image       domain.CompositePayload
	Temperature float64
	JSONMode    bool
}

// VisionModel turns an image and instructions into text.
type VisionModel interface {
	Generate(ctx context.Context, req VisionRequest) (string, error)
}

// ChatRequest is one conversational call. System is sent ahead of Turns.
type ChatRequest struct {
	System      string
	Turns       []domain.ConversationTurn
	Temperature float64
}

// ChatModel turns a conversation into the next assistant reply.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Provider is a hosted model backend that serves both capabilities.
type Provider interface {
	VisionModel
	ChatModel
	Name() string
}
