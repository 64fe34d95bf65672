package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"carepilot/internal/domain"
	"carepilot/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context) (*service.SessionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionInfo), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*service.SessionInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionInfo), args.Error(1)
}

func (m *MockSessionService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionService) Intake(ctx context.Context, id uuid.UUID, input service.IntakeInput) (*service.IntakeResult, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IntakeResult), args.Error(1)
}

func (m *MockSessionService) Send(ctx context.Context, id uuid.UUID, content string) (*service.ChatReply, error) {
	args := m.Called(ctx, id, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatReply), args.Error(1)
}

func (m *MockSessionService) Messages(ctx context.Context, id uuid.UUID) ([]domain.ConversationTurn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConversationTurn), args.Error(1)
}

func (m *MockSessionService) CarePlan(ctx context.Context, id uuid.UUID) (*domain.CarePlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarePlan), args.Error(1)
}

func (m *MockSessionService) Slots(ctx context.Context, id uuid.UUID) (domain.SlotView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.SlotView), args.Error(1)
}

func (m *MockSessionService) Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*service.ExportFile, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}

func (m *MockSessionService) Notify(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockSessionService) CheckIn(ctx context.Context, id uuid.UUID, input service.CheckInInput) (*domain.AdherenceCheckIn, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdherenceCheckIn), args.Error(1)
}

func (m *MockSessionService) Adherence(ctx context.Context, id uuid.UUID) (*service.AdherenceSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdherenceSummary), args.Error(1)
}
