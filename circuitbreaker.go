package brace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is a circuit breaker state. The zero value is [StateClosed].
type State uint32

// Circuit breaker states.
const (
	// StateClosed lets calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects calls without executing them.
	StateOpen
	// StateHalfOpen admits a single trial call at a time to probe recovery.
	StateHalfOpen
)

// String returns "closed", "open" or "half_open".
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

type (
	breakerConfig struct {
		failureThreshold int
		successThreshold int
		halfOpenAfter    time.Duration
	}

	// CircuitBreakerOption configures a circuit breaker.
	CircuitBreakerOption func(*breakerConfig)

	// CircuitBreaker tracks the health of one downstream resource and fails
	// fast while it is down. One instance is shared by every caller
	// protecting that resource; it lives as long as the process or until
	// [CircuitBreaker.Reset].
	//
	// Pattern: Circuit Breaker — consecutive failures trip it open, a lazy
	// cool-down moves it to half-open, and a single admitted trial at a
	// time decides between closing and reopening. State and counters are
	// lock-free atomics; the only lock is the non-blocking half-open
	// admission gate.
	CircuitBreaker struct {
		clock Clock
		hooks *Hooks
		cfg   breakerConfig

		state           atomic.Uint32 // holds a State value
		failures        atomic.Int64  // consecutive failures while closed
		successes       atomic.Int64  // successful trials while half-open
		lastFailureNano atomic.Int64  // unix nano of the last recorded failure

		// gate admits exactly one half-open trial at a time. Acquisition is
		// TryLock only — contenders are rejected, never queued.
		gate sync.Mutex
	}
)

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		failureThreshold: 5,
		successThreshold: 1,
		halfOpenAfter:    30 * time.Second,
	}
}

// FailureThreshold sets how many consecutive failures trip the breaker.
// Values below 1 mean a single failure trips it.
func FailureThreshold(n int) CircuitBreakerOption {
	return func(cfg *breakerConfig) {
		cfg.failureThreshold = n
	}
}

// SuccessThreshold sets how many successful half-open trials close the
// breaker. Values below 1 mean a single success closes it.
func SuccessThreshold(n int) CircuitBreakerOption {
	return func(cfg *breakerConfig) {
		cfg.successThreshold = n
	}
}

// HalfOpenAfter sets the cool-down an open breaker waits before probing
// recovery.
func HalfOpenAfter(d time.Duration) CircuitBreakerOption {
	return func(cfg *breakerConfig) {
		cfg.halfOpenAfter = d
	}
}

// NewCircuitBreaker creates a circuit breaker. Defaults: 5 consecutive
// failures to trip, 1 successful trial to close, 30s cool-down. hooks must
// be non-nil; use a zero &Hooks{} when no callbacks are needed.
func NewCircuitBreaker(
	clock Clock,
	hooks *Hooks,
	opts ...CircuitBreakerOption,
) *CircuitBreaker {
	cfg := defaultBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.failureThreshold < 1 {
		cfg.failureThreshold = 1
	}

	if cfg.successThreshold < 1 {
		cfg.successThreshold = 1
	}

	return &CircuitBreaker{
		clock: clock,
		hooks: hooks,
		cfg:   cfg,
	}
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Do runs op through the breaker as one admission-and-execution unit.
//
// Closed: op runs directly; its outcome feeds the failure counter. Open:
// the call is rejected with [ErrCircuitOpen] and op is never invoked; once
// the cool-down has elapsed the breaker moves to half-open first. Half-open:
// at most one trial runs at a time — callers that find the trial slot taken
// are rejected immediately with [ErrCircuitOpen] rather than queued. A
// trial's success counts toward closing; its failure reopens the breaker
// on the spot.
//
// Any non-nil error from op — including a cancelled context — counts as a
// failure. ErrCircuitOpen returned here always means rejection: op did not
// run.
func (cb *CircuitBreaker) Do(ctx context.Context, op func(context.Context) error) error {
	for {
		switch cb.evaluate() {
		case StateClosed:
			err := op(ctx)
			cb.record(err)

			return err

		case StateOpen:
			cb.hooks.emitCircuitRejected()

			return ErrCircuitOpen

		case StateHalfOpen:
			if !cb.gate.TryLock() {
				cb.hooks.emitCircuitRejected()

				return ErrCircuitOpen
			}

			// The state may have moved while racing for the gate; start
			// over against the current state instead of forcing a stale
			// trial.
			if State(cb.state.Load()) != StateHalfOpen {
				cb.gate.Unlock()

				continue
			}

			err := op(ctx)
			cb.record(err)
			cb.gate.Unlock()

			return err
		}
	}
}

// State returns the current state. Reading the state of an open breaker
// whose cool-down has elapsed performs the open-to-half-open transition,
// exactly as a call through [CircuitBreaker.Do] would.
func (cb *CircuitBreaker) State() State {
	return cb.evaluate()
}

// Failures returns the current consecutive-failure count. Intended for
// diagnostics and tests.
func (cb *CircuitBreaker) Failures() int64 {
	return cb.failures.Load()
}

// Reset unconditionally returns the breaker to closed with all counters
// cleared. This is an administrative operation — no lifecycle hooks fire.
func (cb *CircuitBreaker) Reset() {
	cb.state.Store(uint32(StateClosed))
	cb.failures.Store(0)
	cb.successes.Store(0)
	cb.lastFailureNano.Store(0)
}

// ---------------------------------------------------------------------------
// State machine internals
// ---------------------------------------------------------------------------

// evaluate returns the effective state, applying the lazy open-to-half-open
// transition when the cool-down since the last failure has elapsed. There
// is no background timer; every observation re-checks opportunistically.
func (cb *CircuitBreaker) evaluate() State {
	s := State(cb.state.Load())
	if s != StateOpen {
		return s
	}

	last := time.Unix(0, cb.lastFailureNano.Load())
	if cb.clock.Since(last) <= cb.cfg.halfOpenAfter {
		return StateOpen
	}

	if cb.state.CompareAndSwap(uint32(StateOpen), uint32(StateHalfOpen)) {
		cb.successes.Store(0)
		cb.hooks.emitCircuitHalfOpen()

		return StateHalfOpen
	}

	// Lost the transition race; report whatever won.
	return State(cb.state.Load())
}

// record feeds one executed call's outcome into the state machine.
func (cb *CircuitBreaker) record(err error) {
	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch State(cb.state.Load()) {
	case StateClosed:
		// A success wipes the consecutive-failure streak.
		cb.failures.Store(0)

	case StateHalfOpen:
		n := cb.successes.Add(1)
		if n < int64(cb.cfg.successThreshold) {
			break
		}

		if !cb.state.CompareAndSwap(uint32(StateHalfOpen), uint32(StateClosed)) {
			break
		}

		cb.failures.Store(0)
		cb.successes.Store(0)
		cb.hooks.emitCircuitClose()

	case StateOpen:
		// Stale result from a call that started earlier — ignore.
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.lastFailureNano.Store(cb.clock.Now().UnixNano())

	switch State(cb.state.Load()) {
	case StateClosed:
		n := cb.failures.Add(1)
		if n < int64(cb.cfg.failureThreshold) {
			break
		}

		if !cb.state.CompareAndSwap(uint32(StateClosed), uint32(StateOpen)) {
			break
		}

		cb.hooks.emitCircuitOpen()

	case StateHalfOpen:
		// A failed trial reopens immediately.
		if cb.state.CompareAndSwap(uint32(StateHalfOpen), uint32(StateOpen)) {
			cb.successes.Store(0)
			cb.hooks.emitCircuitOpen()
		}

	case StateOpen:
		// Already open; the refreshed failure time extends the cool-down.
	}
}
