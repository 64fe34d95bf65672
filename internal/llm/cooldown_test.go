package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carepilot/internal/llm"
	"carepilot/internal/port"
	"carepilot/mocks"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newCooldown(p *mocks.MockProvider, clock *fakeClock) *llm.Cooldown {
	p.On("Name").Return("mistral").Maybe()
	return llm.NewCooldown(p, zerolog.Nop()).WithClock(clock.Now)
}

func TestCooldown_PassesThrough(t *testing.T) {
	p := new(mocks.MockProvider)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newCooldown(p, clock)

	p.On("Generate", mock.Anything, mock.Anything).Return(`{"ok":true}`, nil).Once()

	out, err := c.Generate(context.Background(), port.VisionRequest{Instruction: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	p.AssertExpectations(t)
}

func TestCooldown_OpensAfterRateLimit(t *testing.T) {
	p := new(mocks.MockProvider)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newCooldown(p, clock)

	p.On("Complete", mock.Anything, mock.Anything).
		Return("", llm.NewRateLimitError("mistral", errors.New("429"), 30)).Once()

	_, err := c.Complete(context.Background(), port.ChatRequest{})
	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)

	// While cooling down the provider is not called at all.
	clock.Advance(10 * time.Second)
	_, err = c.Complete(context.Background(), port.ChatRequest{})
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 20*time.Second, rlErr.RetryAfter)
	p.AssertNumberOfCalls(t, "Complete", 1)

	// After the reset time calls flow again.
	clock.Advance(21 * time.Second)
	p.On("Complete", mock.Anything, mock.Anything).Return("hello", nil).Once()
	out, err := c.Complete(context.Background(), port.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	p.AssertNumberOfCalls(t, "Complete", 2)
}

func TestCooldown_OtherErrorsDoNotOpen(t *testing.T) {
	p := new(mocks.MockProvider)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newCooldown(p, clock)

	p.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("boom")).Twice()

	_, err := c.Generate(context.Background(), port.VisionRequest{})
	require.EqualError(t, err, "boom")
	_, err = c.Generate(context.Background(), port.VisionRequest{})
	require.EqualError(t, err, "boom")
	p.AssertExpectations(t)
}
