package brace

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// FaultTolerance[T] — the composition type
// ---------------------------------------------------------------------------

// FaultTolerance composes at most one retry policy, at most one circuit
// breaker and an optional overall deadline around operations returning T,
// behind a single [FaultTolerance.Do] method. Construct one per protected
// resource with [NewFaultTolerance] and reuse it — the value itself holds
// no per-call state (the breaker inside it does).
//
// Composition order is fixed, outer to inner: fallback, deadline, circuit
// breaker, retry. The breaker therefore accounts for the entire retry
// sequence as one unit — an operation that fails twice and succeeds on the
// third attempt is one success to the breaker, and an exhausted retry loop
// is exactly one failure.
//
// Pattern: Functional Options — configured via composable option values;
// generic options use any so callers never spell the type parameter twice.
type FaultTolerance[T any] struct {
	name  string
	hooks Hooks
	clock Clock
	chain Middleware[T]

	// Stateful pieces kept for health reporting and administration.
	retry   *RetryPolicy
	breaker *CircuitBreaker
	timeout time.Duration

	// Registry this instance registered with (nil if anonymous).
	registry *Registry
}

// Name returns the instance name ("" for anonymous instances).
func (ft *FaultTolerance[T]) Name() string { return ft.name }

// CircuitBreaker returns the breaker guarding this instance, or nil when
// none is configured. Useful for administrative Reset and for healer
// probes.
func (ft *FaultTolerance[T]) CircuitBreaker() *CircuitBreaker { return ft.breaker }

// Do executes fn through the composed chain. With nothing configured (see
// [Passthrough]) fn runs exactly once, synchronously, and any failure
// propagates unmodified.
func (ft *FaultTolerance[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	wrapped := ft.chain(fn)
	return wrapped(ctx)
}

// Passthrough returns an unnamed instance with none of the stages
// configured: the no-protection identity, handy as a default or in tests.
func Passthrough[T any]() *FaultTolerance[T] {
	return NewFaultTolerance[T]("")
}

// ---------------------------------------------------------------------------
// Non-generic option descriptors — stored as any, read by NewFaultTolerance
// ---------------------------------------------------------------------------

// setupOptionFunc is a non-generic option that modifies toleranceSetup.
type setupOptionFunc func(*toleranceSetup)

// toleranceSetup holds non-generic configuration collected first, so the
// resolved clock and hooks are available when stages are built.
type toleranceSetup struct {
	clock    Clock
	hooks    Hooks
	registry *Registry
}

// timeoutDesc holds a deferred deadline configuration.
type timeoutDesc struct {
	d time.Duration
}

// retryDesc holds deferred retry configuration.
type retryDesc struct {
	opts []RetryOption
}

// retryPolicyDesc holds a prebuilt retry policy.
type retryPolicyDesc struct {
	policy *RetryPolicy
}

// breakerDesc holds deferred circuit breaker configuration.
type breakerDesc struct {
	opts []CircuitBreakerOption
}

// sharedBreakerDesc holds a caller-owned breaker shared across instances.
type sharedBreakerDesc struct {
	cb *CircuitBreaker
}

// fallbackDesc holds a type-erased static fallback value.
type fallbackDesc struct {
	val any
}

// fallbackFuncDesc holds a type-erased fallback function.
type fallbackFuncDesc struct {
	fn any // func(error) (T, error) stored as any
}

// ---------------------------------------------------------------------------
// With* options — all return any
// ---------------------------------------------------------------------------

// WithClock sets the clock used by every stage of this instance.
func WithClock(c Clock) any {
	return setupOptionFunc(func(s *toleranceSetup) {
		s.clock = c
	})
}

// WithHooks sets the lifecycle hooks shared by every stage of this instance.
func WithHooks(h Hooks) any {
	return setupOptionFunc(func(s *toleranceSetup) {
		s.hooks = h
	})
}

// WithRegistry sets an explicit registry to register with. Named instances
// without this option register with [DefaultRegistry].
func WithRegistry(reg *Registry) any {
	return setupOptionFunc(func(s *toleranceSetup) {
		s.registry = reg
	})
}

// WithTimeout bounds the whole composed call — retries, backoff sleeps and
// breaker bookkeeping included — by d.
func WithTimeout(d time.Duration) any {
	return timeoutDesc{d: d}
}

// WithRetry adds a retry stage built from opts (see [NewRetryPolicy] for
// the defaults).
func WithRetry(opts ...RetryOption) any {
	return retryDesc{opts: opts}
}

// WithRetryPolicy adds a retry stage driven by an existing policy value.
func WithRetryPolicy(p *RetryPolicy) any {
	return retryPolicyDesc{policy: p}
}

// WithCircuitBreaker adds a circuit breaker stage owned by this instance.
func WithCircuitBreaker(opts ...CircuitBreakerOption) any {
	return breakerDesc{opts: opts}
}

// WithSharedCircuitBreaker adds a circuit breaker stage backed by cb, which
// the caller owns. Several instances protecting the same downstream
// resource should share one breaker so they trip and recover together.
func WithSharedCircuitBreaker(cb *CircuitBreaker) any {
	return sharedBreakerDesc{cb: cb}
}

// WithFallback adds a static fallback value returned when the composed call
// fails. The value must match the instance's type parameter T.
func WithFallback[T any](val T) any {
	return fallbackDesc{val: val}
}

// WithFallbackFunc adds a fallback function called with the final error
// when the composed call fails. The signature must be func(error) (T, error)
// for the instance's type parameter T.
func WithFallbackFunc[T any](fn func(error) (T, error)) any {
	return fallbackFuncDesc{fn: fn}
}

// ---------------------------------------------------------------------------
// NewFaultTolerance[T] — construct and wire the chain
// ---------------------------------------------------------------------------

// NewFaultTolerance creates an instance with the given name and options.
// Options are processed in two phases: non-generic setup (clock, hooks,
// registry) first, then stage descriptors build their middleware with the
// resolved clock and hooks. Stages are ordered by fixed priority via
// [SortStages] before chaining, so declaration order never changes the
// nesting. Configure at most one stage of each kind.
//
// Named instances auto-register for readiness reporting; "" skips
// registration.
func NewFaultTolerance[T any](name string, opts ...any) *FaultTolerance[T] {
	var setup toleranceSetup

	// Phase 1: resolve clock, hooks and registry before any stage exists.
	for _, opt := range opts {
		if sof, ok := opt.(setupOptionFunc); ok {
			sof(&setup)
		}
	}

	if setup.clock == nil {
		setup.clock = RealClock{}
	}

	hooks := setup.hooks
	clock := setup.clock

	// Phase 2: build stage entries from the descriptors.
	var (
		entries []StageEntry[T]
		retry   *RetryPolicy
		breaker *CircuitBreaker
		timeout time.Duration
	)

	for _, opt := range opts {
		switch desc := opt.(type) {
		case setupOptionFunc:
			// Already processed in phase 1.

		case timeoutDesc:
			d := desc.d
			timeout = d
			entries = append(entries, StageEntry[T]{
				Priority: priorityTimeout,
				Name:     "timeout",
				MW: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoTimeout[T](ctx, d, next, &hooks, clock)
					}
				},
			})

		case retryDesc:
			retry = NewRetryPolicy(desc.opts...)
			entries = append(entries, retryEntry[T](retry, &hooks, clock))

		case retryPolicyDesc:
			retry = desc.policy
			entries = append(entries, retryEntry[T](retry, &hooks, clock))

		case breakerDesc:
			breaker = NewCircuitBreaker(clock, &hooks, desc.opts...)
			entries = append(entries, breakerEntry[T](breaker))

		case sharedBreakerDesc:
			breaker = desc.cb
			entries = append(entries, breakerEntry[T](breaker))

		case fallbackDesc:
			val := desc.val.(T)
			entries = append(entries, StageEntry[T]{
				Priority: priorityFallback,
				Name:     "fallback",
				MW: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoFallback[T](ctx, next, val, &hooks)
					}
				},
			})

		case fallbackFuncDesc:
			fn := desc.fn.(func(error) (T, error))
			entries = append(entries, StageEntry[T]{
				Priority: priorityFallback,
				Name:     "fallback_func",
				MW: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
					return func(ctx context.Context) (T, error) {
						return DoFallbackFunc[T](ctx, next, fn, &hooks)
					}
				},
			})
		}
	}

	sorted := SortStages[T](entries)
	chain := Chain[T](sorted...)

	// Named instances auto-register.
	var reg *Registry
	if name != "" {
		reg = setup.registry
		if reg == nil {
			reg = DefaultRegistry()
		}
	}

	ft := &FaultTolerance[T]{
		name:     name,
		hooks:    hooks,
		clock:    clock,
		chain:    chain,
		retry:    retry,
		breaker:  breaker,
		timeout:  timeout,
		registry: reg,
	}

	if reg != nil {
		reg.Register(ft)
	}

	return ft
}

// retryEntry builds the innermost stage: the retry loop that drives the raw
// operation.
func retryEntry[T any](policy *RetryPolicy, hooks *Hooks, clock Clock) StageEntry[T] {
	return StageEntry[T]{
		Priority: priorityRetry,
		Name:     "retry",
		MW: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
			return func(ctx context.Context) (T, error) {
				return DoRetry[T](ctx, policy, next, hooks, clock)
			}
		},
	}
}

// breakerEntry adapts [CircuitBreaker.Do] to the typed middleware shape.
// next — the whole retry loop when one is configured — is handed to the
// breaker as a single admission-and-execution unit.
func breakerEntry[T any](cb *CircuitBreaker) StageEntry[T] {
	return StageEntry[T]{
		Priority: priorityCircuitBreaker,
		Name:     "circuit_breaker",
		MW: func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
			return func(ctx context.Context) (T, error) {
				var val T

				err := cb.Do(ctx, func(ctx context.Context) error {
					v, innerErr := next(ctx)
					if innerErr != nil {
						return innerErr
					}

					val = v

					return nil
				})
				if err != nil {
					var zero T
					return zero, err
				}

				return val, nil
			}
		},
	}
}
