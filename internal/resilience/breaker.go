// Package resilience wraps outbound adapter calls with retries and circuit
// breakers.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the state of one circuit breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrOpen is returned without calling through while a breaker is open.
var ErrOpen = eris.New("resilience: circuit open")

// BreakerConfig tunes a breaker.
type BreakerConfig struct {
	// Threshold is the consecutive failure count that opens the breaker.
	Threshold int
	// Cooldown is how long an open breaker rejects calls before probing.
	Cooldown time.Duration
	// Trips decides whether an error counts as a failure. Defaults to any
	// non-nil error that is not a context cancellation by the caller.
	Trips    func(error) bool
	OnChange func(name string, from, to BreakerState)
}

// DefaultBreakerConfig opens after 5 consecutive failures for 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Cooldown: 30 * time.Second}
}

// Breaker is a consecutive-failure circuit breaker for one adapter.
type Breaker struct {
	name string
	cfg  BreakerConfig
	now  func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
}

// NewBreaker returns a closed breaker.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Trips == nil {
		cfg.Trips = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// State reports the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Call runs fn unless the breaker is open, then records the outcome.
func Call[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	if err := b.allow(); err != nil {
		var zero T
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
		return eris.Wrapf(ErrOpen, "adapter %s", b.name)
	}
	b.setState(StateHalfOpen)
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cfg.Trips(err) {
		b.failures = 0
		if b.state != StateClosed {
			b.setState(StateClosed)
		}
		return
	}
	b.failures++
	switch {
	case b.state == StateHalfOpen,
		b.state == StateClosed && b.failures >= b.cfg.Threshold:
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnChange != nil && from != to {
		b.cfg.OnChange(b.name, from, to)
	}
}

// Breakers holds one lazily created breaker per adapter name.
type Breakers struct {
	cfg BreakerConfig
	mu  sync.Mutex
	m   map[string]*Breaker
}

// NewBreakers returns an empty per-adapter breaker set.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, m: make(map[string]*Breaker)}
}

// For returns the breaker for name, creating it on first use.
func (bs *Breakers) For(name string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.m[name]
	if !ok {
		b = NewBreaker(name, bs.cfg)
		bs.m[name] = b
	}
	return b
}

// States snapshots every known breaker.
func (bs *Breakers) States() map[string]BreakerState {
	bs.mu.Lock()
	all := make(map[string]*Breaker, len(bs.m))
	for k, v := range bs.m {
		all[k] = v
	}
	bs.mu.Unlock()

	out := make(map[string]BreakerState, len(all))
	for k, b := range all {
		out[k] = b.State()
	}
	return out
}
