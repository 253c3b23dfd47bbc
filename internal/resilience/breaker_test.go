package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(context.Context) (int, error) { return 0, errors.New("down") }
func passing(context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	var changes []BreakerState
	b := NewBreaker("codeGraph", BreakerConfig{
		Threshold: 2,
		Cooldown:  time.Minute,
		OnChange:  func(_ string, _, to BreakerState) { changes = append(changes, to) },
	})
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	assert.Equal(t, StateClosed, b.State())
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	_, err := Call(ctx, b, func(context.Context) (int, error) { calls++; return 0, nil })
	require.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, calls)
	assert.Equal(t, []BreakerState{StateOpen}, changes)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := NewBreaker("socialMap", BreakerConfig{Threshold: 1, Cooldown: time.Second})
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	_, err := Call(ctx, b, passing)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("webCrawl", BreakerConfig{Threshold: 1, Cooldown: time.Second})
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	now = now.Add(2 * time.Second)
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	b := NewBreaker("govVerify", BreakerConfig{Threshold: 1})
	_, _ = Call(context.Background(), b, func(context.Context) (int, error) {
		return 0, context.Canceled
	})
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakers_ForReusesBreaker(t *testing.T) {
	bs := NewBreakers(DefaultBreakerConfig())
	a := bs.For("proConnect")
	assert.Same(t, a, bs.For("proConnect"))
	assert.NotSame(t, a, bs.For("govVerify"))

	states := bs.States()
	assert.Len(t, states, 2)
	assert.Equal(t, StateClosed, states["proConnect"])
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
