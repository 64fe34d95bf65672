// Package session keeps per-browser conversation state in memory. Nothing
// here outlives the process or the session's TTL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"carepilot/internal/domain"
)

// PermitKind names the operation a permit guards.
type PermitKind int

const (
	PermitIntake PermitKind = iota
	PermitChat
)

// Session holds the care plan, the append-only conversation, adherence
// check-ins and the queue of assistant messages waiting to be posted.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.RWMutex
	lastSeen time.Time
	plan     *domain.CarePlan
	history  []domain.ConversationTurn
	checkIns []domain.AdherenceCheckIn

	permits map[PermitKind]chan struct{}
	events  chan string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(now time.Time, eventBuffer int) *Session {
	if eventBuffer <= 0 {
		eventBuffer = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		lastSeen:  now,
		history:   []domain.ConversationTurn{},
		checkIns:  []domain.AdherenceCheckIn{},
		permits: map[PermitKind]chan struct{}{
			PermitIntake: make(chan struct{}, 1),
			PermitChat:   make(chan struct{}, 1),
		},
		events: make(chan string, eventBuffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// loop drains injected assistant messages into the history until the
// session ends.
func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.events:
			s.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Content: msg})
		}
	}
}

// Context is cancelled when the session is deleted or expires. Outbound
// calls made on the session's behalf should derive from it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Done is closed once the event loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.cancel()
}

// Acquire takes the single permit for kind. It fails immediately with
// ErrSessionBusy when the permit is held.
func (s *Session) Acquire(kind PermitKind) (release func(), err error) {
	permit := s.permits[kind]
	select {
	case permit <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-permit }) }, nil
	default:
		return nil, domain.ErrSessionBusy
	}
}

// Plan returns the current care plan, or nil before the first intake.
func (s *Session) Plan() *domain.CarePlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// SetPlan replaces the care plan and starts a fresh conversation with the
// greeting. Earlier check-ins belong to the old plan and are dropped.
func (s *Session) SetPlan(plan *domain.CarePlan, greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.history = []domain.ConversationTurn{{Role: domain.RoleAssistant, Content: greeting}}
	s.checkIns = []domain.AdherenceCheckIn{}
}

// Append adds a turn to the conversation.
func (s *Session) Append(turn domain.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
}

// History returns a copy of the conversation.
func (s *Session) History() []domain.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ConversationTurn, len(s.history))
	copy(out, s.history)
	return out
}

// Notify queues an assistant message for the event loop. It does not block;
// a full queue returns ErrEventQueueFull.
func (s *Session) Notify(msg string) error {
	select {
	case <-s.ctx.Done():
		return domain.ErrSessionNotFound
	default:
	}
	select {
	case s.events <- msg:
		return nil
	default:
		return domain.ErrEventQueueFull
	}
}

// RecordCheckIn appends an adherence check-in.
func (s *Session) RecordCheckIn(c domain.AdherenceCheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkIns = append(s.checkIns, c)
}

// CheckIns returns a copy of the recorded check-ins.
func (s *Session) CheckIns() []domain.AdherenceCheckIn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AdherenceCheckIn, len(s.checkIns))
	copy(out, s.checkIns)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the last lookup.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
