package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepilot/internal/config"
	"carepilot/internal/domain"
	"carepilot/internal/session"
)

func newStore() *session.Store {
	return session.NewStore(config.SessionConfig{TTL: time.Hour, EventBuffer: 2}, zerolog.Nop())
}

func mustCreate(t *testing.T, st *session.Store) *session.Session {
	t.Helper()
	s, err := st.Create()
	require.NoError(t, err)
	return s
}

func TestStore_CreateGetDelete(t *testing.T) {
	st := newStore()

	s := mustCreate(t, st)
	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	require.NoError(t, st.Delete(s.ID))
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(s.ID), domain.ErrSessionNotFound)

	// Deleting cancels the session context and stops its event loop.
	assert.ErrorIs(t, s.Context().Err(), context.Canceled)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("event loop did not stop")
	}
}

func TestStore_CreateRespectsMaxSessions(t *testing.T) {
	st := session.NewStore(config.SessionConfig{TTL: time.Hour, MaxSessions: 2}, zerolog.Nop())

	a := mustCreate(t, st)
	mustCreate(t, st)

	s, err := st.Create()
	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrTooManySessions)
	assert.Equal(t, 2, st.Len())

	require.NoError(t, st.Delete(a.ID))
	mustCreate(t, st)
	assert.Equal(t, 2, st.Len())
}

func TestStore_GetUnknown(t *testing.T) {
	_, err := newStore().Get(uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_SweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	st := newStore().WithClock(func() time.Time { return now })

	idle := mustCreate(t, st)
	active := mustCreate(t, st)

	now = now.Add(50 * time.Minute)
	_, err := st.Get(active.ID)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, st.Sweep())

	_, err = st.Get(idle.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Error(t, idle.Context().Err())

	_, err = st.Get(active.ID)
	assert.NoError(t, err)
}

func TestStore_RunClosesSessionsOnShutdown(t *testing.T) {
	st := newStore()
	s := mustCreate(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, 0, st.Len())
	assert.Error(t, s.Context().Err())
}

func TestSession_SinglePermitPerKind(t *testing.T) {
	s := mustCreate(t, newStore())

	release, err := s.Acquire(session.PermitChat)
	require.NoError(t, err)

	_, err = s.Acquire(session.PermitChat)
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	// Intake and chat permits are independent.
	releaseIntake, err := s.Acquire(session.PermitIntake)
	require.NoError(t, err)
	releaseIntake()

	release()
	release() // idempotent

	release, err = s.Acquire(session.PermitChat)
	require.NoError(t, err)
	release()
}

func TestSession_SetPlanResetsConversation(t *testing.T) {
	s := mustCreate(t, newStore())
	s.Append(domain.ConversationTurn{Role: domain.RoleUser, Content: "old"})
	s.RecordCheckIn(domain.AdherenceCheckIn{Day: 1, Slot: domain.SlotMorning, Taken: true})

	plan := &domain.CarePlan{PatientName: "A"}
	s.SetPlan(plan, "hello")

	assert.Same(t, plan, s.Plan())
	assert.Equal(t, []domain.ConversationTurn{{Role: domain.RoleAssistant, Content: "hello"}}, s.History())
	assert.Empty(t, s.CheckIns())
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := mustCreate(t, newStore())
	s.Append(domain.ConversationTurn{Role: domain.RoleUser, Content: "q"})

	h := s.History()
	h[0].Content = "mutated"

	assert.Equal(t, "q", s.History()[0].Content)
}

func TestSession_NotifyIsDrainedIntoHistory(t *testing.T) {
	s := mustCreate(t, newStore())

	require.NoError(t, s.Notify("Did you take your morning dose?"))

	assert.Eventually(t, func() bool {
		h := s.History()
		return len(h) == 1 && h[0].Role == domain.RoleAssistant && h[0].Content == "Did you take your morning dose?"
	}, time.Second, 10*time.Millisecond)
}

func TestSession_NotifyAfterClose(t *testing.T) {
	st := newStore()
	s := mustCreate(t, st)
	require.NoError(t, st.Delete(s.ID))

	assert.ErrorIs(t, s.Notify("late"), domain.ErrSessionNotFound)
}
