package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"carepilot/internal/domain"
	"carepilot/internal/service"
)

// MockChatService is a mock implementation of service.ChatService.
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (*service.ChatReply, error) {
	args := m.Called(ctx, history, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatReply), args.Error(1)
}
