package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"carepilot/internal/careplan"
	"carepilot/internal/domain"
)

// MockDocumentNormalizer is a mock implementation of port.DocumentNormalizer.
type MockDocumentNormalizer struct {
	mock.Mock
}

func (m *MockDocumentNormalizer) Normalize(ctx context.Context, data []byte) (domain.CompositePayload, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(domain.CompositePayload), args.Error(1)
}

// MockPlanExtractor is a mock implementation of port.PlanExtractor.
type MockPlanExtractor struct {
	mock.Mock
}

func (m *MockPlanExtractor) Extract(ctx context.Context, payload domain.CompositePayload) (*careplan.Draft, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*careplan.Draft), args.Error(1)
}

// MockGroundedResponder is a mock implementation of port.GroundedResponder.
type MockGroundedResponder struct {
	mock.Mock
}

func (m *MockGroundedResponder) Reply(ctx context.Context, history []domain.ConversationTurn, plan *domain.CarePlan) (string, error) {
	args := m.Called(ctx, history, plan)
	return args.String(0), args.Error(1)
}
