// ABOUTME: Circuit breaker guarding calls to the generation service
// ABOUTME: After repeated failures calls short-circuit so items fall back without waiting on a dead backend
package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"feed-enricher/domain"
)

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerMetrics is a snapshot of breaker counters.
type CircuitBreakerMetrics struct {
	TotalCalls     int64
	TotalFailures  int64
	TotalSuccesses int64
	Rejected       int64
	State          CircuitBreakerState
	LastFailure    time.Time
}

// CircuitBreaker opens after threshold consecutive failures and lets a single
// probe through once timeout has elapsed.
type CircuitBreaker struct {
	threshold int
	timeout   time.Duration
	now       func() time.Time
	onChange  func(from, to CircuitBreakerState)

	mu             sync.Mutex
	state          CircuitBreakerState
	failures       int
	lastFailure    time.Time
	probing        bool
	totalCalls     int64
	totalFailures  int64
	totalSuccesses int64
	rejected       int64
}

type CircuitBreakerOption func(*CircuitBreaker)

// WithStateChange registers a callback invoked on every transition.
func WithStateChange(fn func(from, to CircuitBreakerState)) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a breaker. A non-positive threshold disables it.
func NewCircuitBreaker(threshold int, timeout time.Duration, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		state:     StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Call runs fn unless the circuit is open. Context cancellation from the
// caller is not counted as a backend failure.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	if cb.threshold <= 0 {
		return nil
	}

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.timeout {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		cb.rejected++
		return domain.ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			cb.rejected++
			return domain.ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	wasProbe := cb.state == StateHalfOpen
	if wasProbe {
		cb.probing = false
	}

	if err != nil && errors.Is(err, context.Canceled) {
		return
	}

	if err != nil {
		cb.totalFailures++
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.threshold > 0 && (wasProbe || cb.failures >= cb.threshold) {
			cb.transition(StateOpen)
		}
		return
	}

	cb.totalSuccesses++
	cb.failures = 0
	if wasProbe {
		cb.transition(StateClosed)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onChange != nil {
		cb.onChange(from, to)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		TotalCalls:     cb.totalCalls,
		TotalFailures:  cb.totalFailures,
		TotalSuccesses: cb.totalSuccesses,
		Rejected:       cb.rejected,
		State:          cb.state,
		LastFailure:    cb.lastFailure,
	}
}

// Reset closes the circuit and clears the failure count
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probing = false
	cb.lastFailure = time.Time{}
	cb.transition(StateClosed)
}
