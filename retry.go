package brace

import (
	"context"
	"errors"
	"time"
)

// Default retry configuration: three attempts, exponential backoff from
// 500ms doubling up to a 5 minute cap, 10% jitter.
const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 500 * time.Millisecond
	defaultMultiplier   = 2.0
	defaultMaxDelay     = 5 * time.Minute
	defaultJitter       = 0.1
)

// RetryPolicy describes how failed attempts are repeated: how many times,
// how long to pause between them, and which failures are worth retrying.
// Build it once with [NewRetryPolicy] and share it freely — the value is
// immutable and carries no per-call state.
type RetryPolicy struct {
	backoff     Backoff
	retryIf     func(error) bool
	retryOn     []error
	maxAttempts int
	jitter      float64
}

// RetryOption configures a [RetryPolicy] under construction.
type RetryOption func(*RetryPolicy)

// MaxAttempts sets the total number of attempts, including the first.
// Values below 1 mean a single attempt.
func MaxAttempts(n int) RetryOption {
	return func(p *RetryPolicy) {
		p.maxAttempts = n
	}
}

// WithBackoff sets the delay curve between attempts.
func WithBackoff(b Backoff) RetryOption {
	return func(p *RetryPolicy) {
		p.backoff = b
	}
}

// Jitter sets the fractional randomization applied to each delay,
// clamped to [0, 1] at delay time. Zero disables jitter.
func Jitter(f float64) RetryOption {
	return func(p *RetryPolicy) {
		p.jitter = f
	}
}

// RetryOn narrows retries to failures matching one of targets via
// errors.Is. Non-matching failures stop the loop on their first occurrence.
func RetryOn(targets ...error) RetryOption {
	return func(p *RetryPolicy) {
		p.retryOn = targets
	}
}

// RetryIf sets a fully custom predicate deciding whether a failure is
// retried. It takes precedence over any [RetryOn] allow-list.
func RetryIf(fn func(error) bool) RetryOption {
	return func(p *RetryPolicy) {
		p.retryIf = fn
	}
}

// NewRetryPolicy builds an immutable retry policy. With no options it
// retries any failure not marked [Permanent], three attempts total, with
// exponential backoff from 500ms doubling up to a 5 minute cap and 10%
// jitter.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		maxAttempts: defaultMaxAttempts,
		backoff:     Exponential(defaultInitialDelay, defaultMultiplier, defaultMaxDelay),
		jitter:      defaultJitter,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}

	if p.backoff == nil {
		p.backoff = Exponential(defaultInitialDelay, defaultMultiplier, defaultMaxDelay)
	}

	return p
}

// MaxAttempts returns the total number of attempts the policy allows.
func (p *RetryPolicy) MaxAttempts() int { return p.maxAttempts }

// shouldRetry decides whether a failed attempt is repeated. Precedence:
// custom predicate, then allow-list, then the Transient/Permanent
// classification (unclassified failures retry).
func (p *RetryPolicy) shouldRetry(err error) bool {
	if p.retryIf != nil {
		return p.retryIf(err)
	}

	if len(p.retryOn) > 0 {
		for _, target := range p.retryOn {
			if errors.Is(err, target) {
				return true
			}
		}

		return false
	}

	return IsTransient(err)
}

// Pattern: Retry with Backoff — masks transient failures by repeating the
// operation on a delay curve; the predicate and attempt cap bound it.

// DoRetry executes fn under policy. Attempts are strictly sequential; the
// pause before each repeat comes from the policy's backoff with its jitter.
// Cancellation of ctx — observed after an attempt or during a backoff
// sleep — propagates immediately as ctx.Err(), never retried and never
// wrapped. Every other terminal failure surfaces as *ExhaustedError
// carrying the attempt count and the last underlying failure, whether the
// loop ran out of attempts or the predicate stopped it early.
//
// A nil policy means [NewRetryPolicy] defaults. hooks must be non-nil; use
// a zero &Hooks{} when no callbacks are needed.
//
//nolint:ireturn // generic type parameter T, not an interface
func DoRetry[T any](
	ctx context.Context,
	policy *RetryPolicy,
	fn func(context.Context) (T, error),
	hooks *Hooks,
	clock Clock,
) (T, error) {
	if policy == nil {
		policy = NewRetryPolicy()
	}

	var (
		zero    T
		lastErr error
	)

	for attempt := 1; attempt <= policy.maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		// The caller's context ending outranks the attempt's own failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr //nolint:wrapcheck // preserving context error identity
		}

		lastErr = err

		if attempt == policy.maxAttempts || !policy.shouldRetry(err) {
			return zero, &ExhaustedError{Attempts: attempt, Cause: lastErr}
		}

		hooks.emitRetry(attempt, err)

		delay := policy.backoff.Delay(attempt, policy.jitter)

		timer := clock.NewTimer(delay)
		select {
		case <-timer.C():
			// Timer fired, proceed to next attempt.
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err() //nolint:wrapcheck // preserving context error identity
		}
	}

	// Unreachable: the loop always returns from inside.
	return zero, &ExhaustedError{Attempts: policy.maxAttempts, Cause: lastErr}
}
