package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carepilot/internal/chat"
	"carepilot/internal/config"
	"carepilot/internal/domain"
	"carepilot/internal/service"
	"carepilot/internal/session"
	"carepilot/mocks"
)

type sessionFixture struct {
	store  *session.Store
	intake *mocks.MockIntakeService
	chat   *mocks.MockChatService
	svc    service.SessionService
}

func newSessionFixture() *sessionFixture {
	store := session.NewStore(config.SessionConfig{TTL: time.Hour}, zerolog.Nop())
	intake := new(mocks.MockIntakeService)
	chatSvc := new(mocks.MockChatService)
	return &sessionFixture{
		store:  store,
		intake: intake,
		chat:   chatSvc,
		svc:    service.NewSessionService(store, intake, chatSvc, zerolog.Nop()),
	}
}

func planWithMeds() *domain.CarePlan {
	return &domain.CarePlan{
		PatientName: "Asha Rao",
		DocType:     domain.DocTypePrescription,
		Summary:     "Diabetes management.",
		Medications: []domain.MedicationEntry{
			{Name: "Metformin", Dosage: "500mg", Type: domain.MedicationTablet, Schedule: domain.Schedule{Morning: true, Night: true}},
			{Name: "Vitamin D", Dosage: "1000IU", Type: domain.MedicationTablet, Schedule: domain.Schedule{Afternoon: true}},
		},
		RedFlags:    []string{"Fasting sugar above 250"},
		DietaryTips: []string{},
	}
}

// withPlan runs an intake so the session holds planWithMeds.
func (f *sessionFixture) withPlan(t *testing.T) uuid.UUID {
	t.Helper()
	info, err := f.svc.Create(context.Background())
	require.NoError(t, err)

	f.intake.On("Process", mock.Anything, mock.Anything).
		Return(&service.IntakeResult{CarePlan: planWithMeds()}, nil).Once()
	_, err = f.svc.Intake(context.Background(), info.ID, service.IntakeInput{Data: []byte("x")})
	require.NoError(t, err)
	return info.ID
}

func TestSessionService_Create_RefusesPastLimit(t *testing.T) {
	store := session.NewStore(config.SessionConfig{TTL: time.Hour, MaxSessions: 1}, zerolog.Nop())
	svc := service.NewSessionService(store, new(mocks.MockIntakeService), new(mocks.MockChatService), zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Create(ctx)
	assert.ErrorIs(t, err, domain.ErrTooManySessions)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Create(ctx)
	assert.NoError(t, err)
}

func TestSessionService_CreateGetDelete(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	info, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.False(t, info.HasCarePlan)

	got, err := f.svc.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	require.NoError(t, f.svc.Delete(ctx, info.ID))
	_, err = f.svc.Get(ctx, info.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, info.ID), domain.ErrSessionNotFound)
}

func TestSessionService_IntakeStartsConversationWithGreeting(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	msgs, err := f.svc.Messages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, chat.Greeting, msgs[0].Content)

	info, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, info.HasCarePlan)
	assert.Equal(t, "Asha Rao", info.PatientName)
}

func TestSessionService_IntakeFailureKeepsPreviousState(t *testing.T) {
	f := newSessionFixture()
	info, err := f.svc.Create(context.Background())
	require.NoError(t, err)

	f.intake.On("Process", mock.Anything, mock.Anything).Return(nil, domain.ErrDecode)
	_, err = f.svc.Intake(context.Background(), info.ID, service.IntakeInput{Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrDecode)

	_, err = f.svc.CarePlan(context.Background(), info.ID)
	assert.ErrorIs(t, err, domain.ErrNoCarePlan)
}

func TestSessionService_IntakeCancelledWhenSessionDeleted(t *testing.T) {
	f := newSessionFixture()
	info, err := f.svc.Create(context.Background())
	require.NoError(t, err)

	started := make(chan struct{})
	f.intake.On("Process", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled)

	errc := make(chan error, 1)
	go func() {
		_, err := f.svc.Intake(context.Background(), info.ID, service.IntakeInput{Data: []byte("x")})
		errc <- err
	}()

	<-started
	require.NoError(t, f.svc.Delete(context.Background(), info.ID))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("intake was not cancelled")
	}
}

func TestSessionService_SendRequiresPlan(t *testing.T) {
	f := newSessionFixture()
	info, err := f.svc.Create(context.Background())
	require.NoError(t, err)

	_, err = f.svc.Send(context.Background(), info.ID, "hello")
	assert.ErrorIs(t, err, domain.ErrNoCarePlan)
	f.chat.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_SendRejectsEmptyMessage(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	_, err := f.svc.Send(context.Background(), id, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidConversation)
}

func TestSessionService_SendAppendsBothTurns(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	f.chat.On("Reply", mock.Anything, mock.MatchedBy(func(h []domain.ConversationTurn) bool {
		return len(h) == 2 && h[1].Role == domain.RoleUser && h[1].Content == "When do I take Metformin?"
	}), mock.Anything).
		Return(&service.ChatReply{Role: domain.RoleAssistant, Content: "Morning and night."}, nil)

	reply, err := f.svc.Send(context.Background(), id, "  When do I take Metformin?  ")
	require.NoError(t, err)
	assert.Equal(t, "Morning and night.", reply.Content)

	msgs, err := f.svc.Messages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, "Morning and night.", msgs[2].Content)
	f.chat.AssertExpectations(t)
}

func TestSessionService_SendBusy(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	sess, err := f.store.Get(id)
	require.NoError(t, err)
	release, err := sess.Acquire(session.PermitChat)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Send(context.Background(), id, "hello")
	assert.ErrorIs(t, err, domain.ErrSessionBusy)
}

func TestSessionService_SlotsAndExport(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)
	ctx := context.Background()

	view, err := f.svc.Slots(ctx, id)
	require.NoError(t, err)
	assert.Len(t, view.Morning, 1)
	assert.Len(t, view.Afternoon, 1)
	assert.Len(t, view.Night, 1)

	csvFile, err := f.svc.Export(ctx, id, domain.ExportCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(csvFile.Filename, ".csv"))
	assert.Contains(t, string(csvFile.Data), "Metformin")

	xlsxFile, err := f.svc.Export(ctx, id, domain.ExportXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(xlsxFile.Filename, ".xlsx"))
	assert.NotEmpty(t, xlsxFile.Data)

	_, err = f.svc.Export(ctx, id, domain.ExportFormat("pdf"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedExportType)
}

func TestSessionService_NotifyAppearsInHistory(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	require.NoError(t, f.svc.Notify(context.Background(), id, "Time for your evening dose."))

	assert.Eventually(t, func() bool {
		msgs, _ := f.svc.Messages(context.Background(), id)
		last := msgs[len(msgs)-1]
		return last.Role == domain.RoleAssistant && last.Content == "Time for your evening dose."
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, f.svc.Notify(context.Background(), id, " "), domain.ErrInvalidConversation)
}

func TestSessionService_MissedCheckInPostsAlert(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)

	checkIn, err := f.svc.CheckIn(context.Background(), id, service.CheckInInput{Day: 3, Slot: "Night", Taken: false})
	require.NoError(t, err)
	assert.Equal(t, domain.SlotNight, checkIn.Slot)

	assert.Eventually(t, func() bool {
		msgs, _ := f.svc.Messages(context.Background(), id)
		last := msgs[len(msgs)-1].Content
		return strings.Contains(last, "night dose on day 3") && strings.Contains(last, "Metformin")
	}, time.Second, 10*time.Millisecond)
}

func TestSessionService_CheckInValidation(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, id, service.CheckInInput{Day: 0, Slot: "morning"})
	assert.ErrorIs(t, err, domain.ErrInvalidCheckIn)

	_, err = f.svc.CheckIn(ctx, id, service.CheckInInput{Day: 1, Slot: "evening"})
	assert.ErrorIs(t, err, domain.ErrInvalidCheckIn)

	empty, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, empty.ID, service.CheckInInput{Day: 1, Slot: "morning"})
	assert.ErrorIs(t, err, domain.ErrNoCarePlan)
}

func TestSessionService_Adherence(t *testing.T) {
	f := newSessionFixture()
	id := f.withPlan(t)
	ctx := context.Background()

	for _, in := range []service.CheckInInput{
		{Day: 1, Slot: "morning", Taken: true},
		{Day: 1, Slot: "afternoon", Taken: true},
		{Day: 1, Slot: "night", Taken: true},
		{Day: 2, Slot: "morning", Taken: false},
	} {
		_, err := f.svc.CheckIn(ctx, id, in)
		require.NoError(t, err)
	}

	summary, err := f.svc.Adherence(ctx, id)
	require.NoError(t, err)
	assert.Len(t, summary.CheckIns, 4)
	assert.Equal(t, 3, summary.Taken)
	assert.Equal(t, 1, summary.Missed)
	assert.InDelta(t, 0.75, summary.Rate, 1e-9)
	require.Len(t, summary.MissedDoses, 1)
	assert.Equal(t, service.MissedDose{Day: 2, Slot: domain.SlotMorning, Medications: []string{"Metformin"}}, summary.MissedDoses[0])
	assert.Equal(t, []string{"Fasting sugar above 250"}, summary.RedFlags)
}

func TestSessionService_Adherence_EmptySession(t *testing.T) {
	f := newSessionFixture()
	info, err := f.svc.Create(context.Background())
	require.NoError(t, err)

	summary, err := f.svc.Adherence(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.CheckIns)
	assert.NotNil(t, summary.MissedDoses)
	assert.NotNil(t, summary.RedFlags)
	assert.Zero(t, summary.Rate)
}

func TestMissedDoseAlert_WithoutMedications(t *testing.T) {
	msg := service.MissedDoseAlert(domain.AdherenceCheckIn{Day: 2, Slot: domain.SlotAfternoon}, nil)
	assert.Contains(t, msg, "afternoon dose on day 2 was missed.")
}
