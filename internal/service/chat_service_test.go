package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carepilot/internal/chat"
	"carepilot/internal/domain"
	"carepilot/internal/service"
	"carepilot/mocks"
)

func samplePlan() *domain.CarePlan {
	return &domain.CarePlan{
		PatientName: "Asha Rao",
		DocType:     domain.DocTypeLabReport,
		Summary:     "HbA1c 7.2%.",
		Medications: []domain.MedicationEntry{},
		RedFlags:    []string{},
		DietaryTips: []string{},
	}
}

func TestChatService_Reply_Success(t *testing.T) {
	responder := new(mocks.MockGroundedResponder)
	svc := service.NewChatService(responder, time.Minute, zerolog.Nop())

	history := []domain.ConversationTurn{{Role: domain.RoleUser, Content: "What is my HbA1c?"}}
	plan := samplePlan()
	responder.On("Reply", mock.Anything, history, plan).Return("Your HbA1c is 7.2%.", nil)

	reply, err := svc.Reply(context.Background(), history, plan)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "Your HbA1c is 7.2%.", reply.Content)
	assert.False(t, reply.Degraded)
	responder.AssertExpectations(t)
}

func TestChatService_Reply_UnavailableBecomesApology(t *testing.T) {
	cases := []error{
		domain.ChatUnavailableError("provider down", errors.New("503")),
		domain.TimeoutError("chat", context.DeadlineExceeded),
		errors.New("connection reset"),
	}
	for _, cause := range cases {
		t.Run(cause.Error(), func(t *testing.T) {
			responder := new(mocks.MockGroundedResponder)
			svc := service.NewChatService(responder, time.Minute, zerolog.Nop())
			responder.On("Reply", mock.Anything, mock.Anything, mock.Anything).Return("", cause)

			reply, err := svc.Reply(context.Background(), []domain.ConversationTurn{{Role: domain.RoleUser, Content: "hi"}}, samplePlan())
			require.NoError(t, err)
			assert.Equal(t, chat.FallbackReply, reply.Content)
			assert.True(t, reply.Degraded)
		})
	}
}

func TestChatService_Reply_InvalidInputIsReturned(t *testing.T) {
	responder := new(mocks.MockGroundedResponder)
	svc := service.NewChatService(responder, time.Minute, zerolog.Nop())
	responder.On("Reply", mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w: last turn must be from the user", domain.ErrInvalidConversation))

	reply, err := svc.Reply(context.Background(), nil, samplePlan())
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, domain.ErrInvalidConversation)
}
