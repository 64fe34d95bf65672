package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"carepilot/internal/service"
)

// MockIntakeService is a mock implementation of service.IntakeService.
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) Process(ctx context.Context, input service.IntakeInput) (*service.IntakeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IntakeResult), args.Error(1)
}
