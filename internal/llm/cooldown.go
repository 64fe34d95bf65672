package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"carepilot/internal/port"
)

// circuitState tracks rate-limit backoff for a provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if resetAt.After(c.resetAt) {
		c.resetAt = resetAt
	}
}

// Cooldown wraps a Provider and refuses calls while the provider is known to
// be rate limited. It never retries; each allowed call reaches the provider
// exactly once.
type Cooldown struct {
	next    port.Provider
	circuit *circuitState
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCooldown wraps p.
func NewCooldown(p port.Provider, logger zerolog.Logger) *Cooldown {
	return &Cooldown{
		next:    p,
		circuit: &circuitState{},
		logger:  logger.With().Str("component", "llm.Cooldown").Str("provider", p.Name()).Logger(),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (c *Cooldown) WithClock(now func() time.Time) *Cooldown {
	c.now = now
	return c
}

func (c *Cooldown) Name() string {
	return c.next.Name()
}

func (c *Cooldown) Generate(ctx context.Context, req port.VisionRequest) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	out, err := c.next.Generate(ctx, req)
	c.observe(err)
	return out, err
}

func (c *Cooldown) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	out, err := c.next.Complete(ctx, req)
	c.observe(err)
	return out, err
}

func (c *Cooldown) check() error {
	now := c.now()
	resetAt, open := c.circuit.isOpenWithReset(now)
	if !open {
		return nil
	}
	remaining := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if remaining < 1 {
		remaining = 1
	}
	c.logger.Debug().Time("reset_at", resetAt).Msg("refusing call during cooldown")
	return NewRateLimitError(c.next.Name(), fmt.Errorf("cooling down until %s", resetAt.Format(time.RFC3339)), remaining)
}

func (c *Cooldown) observe(err error) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		resetAt := c.now().Add(rlErr.RetryAfter)
		c.circuit.open(resetAt)
		c.logger.Warn().Time("reset_at", resetAt).Msg("provider rate limited, cooling down")
	}
}
