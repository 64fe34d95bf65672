package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"carepilot/internal/config"
	"carepilot/internal/domain"
)

const (
	defaultTTL           = 2 * time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// Store is the in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	eventBuffer   int
	maxSessions   int
	now           func() time.Time
	logger        zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(cfg config.SessionConfig, logger zerolog.Logger) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Store{
		sessions:      make(map[uuid.UUID]*Session),
		ttl:           ttl,
		sweepInterval: interval,
		eventBuffer:   cfg.EventBuffer,
		maxSessions:   cfg.MaxSessions,
		now:           time.Now,
		logger:        logger.With().Str("component", "session.Store").Logger(),
	}
}

// WithClock replaces the time source; used in tests.
func (st *Store) WithClock(now func() time.Time) *Store {
	st.now = now
	return st
}

// Create registers a new session. Once MaxSessions live sessions exist it
// returns ErrTooManySessions; a non-positive limit means unbounded.
func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.mu.Unlock()
		return nil, domain.ErrTooManySessions
	}
	s := newSession(st.now(), st.eventBuffer)
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.logger.Debug().Str("session_id", s.ID.String()).Msg("session created")
	return s, nil
}

// Get returns a live session and refreshes its idle timer.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(st.now())
	return s, nil
}

// Delete ends a session, cancelling anything in flight for it.
func (st *Store) Delete(id uuid.UUID) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.close()
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		st.logger.Info().Int("evicted", len(expired)).Msg("expired sessions evicted")
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (st *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(st.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *Store) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[uuid.UUID]*Session)
	st.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}
