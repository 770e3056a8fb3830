// Package circuitbreaker stops calling an upstream that keeps failing and
// tries it again after a cool-down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

type Config struct {
	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts periodically. Zero keeps them
	// until the state changes.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	// IsSuccessful decides whether an error counts against the breaker.
	// Defaults to err == nil.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from State, to State)
	Logger        *zap.Logger
	Now           func() time.Time
}

type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

type CircuitBreaker struct {
	name string
	cfg  Config

	mu    sync.Mutex
	state State
	// epoch changes on every transition so late results from an earlier
	// state are dropped.
	epoch    uint64
	counts   Counts
	deadline time.Time
}

func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = func(err error) bool { return err == nil }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cb := &CircuitBreaker{name: name, cfg: cfg}
	cb.reset(cfg.Now())
	return cb
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs fn unless the breaker is open. A panic in fn counts as a
// failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	epoch, err := cb.admit()
	if err != nil {
		return err
	}

	healthy := false
	defer func() {
		if r := recover(); r != nil {
			cb.record(epoch, false)
			panic(r)
		}
		cb.record(epoch, healthy)
	}()

	err = fn()
	healthy = cb.cfg.IsSuccessful(err)
	return err
}

// Run is Execute for functions that return a value.
func Run[T any](ctx context.Context, cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advance(cb.cfg.Now())
	return cb.state
}

func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.counts
}

func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advance(cb.cfg.Now())

	switch {
	case cb.state == StateOpen:
		return cb.epoch, ErrCircuitOpen
	case cb.state == StateHalfOpen && cb.counts.Requests >= cb.cfg.MaxRequests:
		return cb.epoch, ErrTooManyRequests
	}

	cb.counts.Requests++
	return cb.epoch, nil
}

func (cb *CircuitBreaker) record(epoch uint64, healthy bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.cfg.Now()
	cb.advance(now)
	if epoch != cb.epoch {
		return
	}

	if healthy {
		cb.counts.success()
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed, now)
		}
		return
	}

	cb.counts.failure()
	switch cb.state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen, now)
		}
	case StateHalfOpen:
		cb.transition(StateOpen, now)
	}
}

// advance applies time-based changes: the open timeout and the closed-state
// count window.
func (cb *CircuitBreaker) advance(now time.Time) {
	if cb.deadline.IsZero() || now.Before(cb.deadline) {
		return
	}

	switch cb.state {
	case StateOpen:
		cb.transition(StateHalfOpen, now)
	case StateClosed:
		cb.reset(now)
	}
}

func (cb *CircuitBreaker) transition(to State, now time.Time) {
	if cb.state == to {
		return
	}

	from := cb.state
	failures := cb.counts.ConsecutiveFailures
	cb.state = to
	cb.reset(now)

	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}

	cb.cfg.Logger.Info("Circuit breaker state changed",
		zap.String("name", cb.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Uint32("failures", failures),
	)
}

func (cb *CircuitBreaker) reset(now time.Time) {
	cb.epoch++
	cb.counts = Counts{}
	cb.deadline = time.Time{}

	switch cb.state {
	case StateOpen:
		cb.deadline = now.Add(cb.cfg.Timeout)
	case StateClosed:
		if cb.cfg.Interval > 0 {
			cb.deadline = now.Add(cb.cfg.Interval)
		}
	}
}
