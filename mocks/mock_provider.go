package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"carepilot/internal/port"
)

// MockProvider is a mock implementation of port.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Generate(ctx context.Context, req port.VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
