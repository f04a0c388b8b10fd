package brace

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the wait duration before a retry attempt. It is a closed
// set: [Fixed] and [Exponential] are the only two variants, both stateless
// pure values safe for unsynchronized concurrent use.
//
// Pattern: Strategy over a sealed sum type — the delay curve varies, the
// retry loop does not.
type Backoff interface {
	// Delay returns the pause before the next attempt. attempt is 1-based
	// and names the attempt that just failed; values below 1 are treated
	// as 1. jitter is the fractional randomization of the delay: 0 (or
	// less) leaves the delay untouched, values above 1 are clamped to 1.
	Delay(attempt int, jitter float64) time.Duration

	// backoff restricts implementations to this package.
	backoff()
}

// ---------------------------------------------------------------------------
// Fixed
// ---------------------------------------------------------------------------

// fixedBackoff pauses the same duration before every attempt.
type fixedBackoff struct {
	delay time.Duration
}

func (b fixedBackoff) Delay(_ int, jitter float64) time.Duration {
	return jittered(b.delay, jitter)
}

func (fixedBackoff) backoff() {}

// Fixed returns a [Backoff] with the same delay before every attempt.
// A negative delay is floored at zero.
func Fixed(delay time.Duration) Backoff {
	if delay < 0 {
		delay = 0
	}

	return fixedBackoff{delay: delay}
}

// ---------------------------------------------------------------------------
// Exponential
// ---------------------------------------------------------------------------

// exponentialBackoff grows the delay geometrically and caps it.
type exponentialBackoff struct {
	initial    time.Duration
	multiplier float64
	max        time.Duration
}

func (b exponentialBackoff) Delay(attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if base > float64(b.max) {
		base = float64(b.max)
	}

	return jittered(time.Duration(base), jitter)
}

func (exponentialBackoff) backoff() {}

// Exponential returns a [Backoff] whose delay before attempt n is
// initial * multiplier^(n-1), capped at max. Negative durations are floored
// at zero and a multiplier below 1.0 is raised to 1.0, so the curve never
// shrinks.
func Exponential(initial time.Duration, multiplier float64, max time.Duration) Backoff {
	if initial < 0 {
		initial = 0
	}

	if multiplier < 1 {
		multiplier = 1
	}

	if max < 0 {
		max = 0
	}

	return exponentialBackoff{initial: initial, multiplier: multiplier, max: max}
}

// ---------------------------------------------------------------------------
// Jitter
// ---------------------------------------------------------------------------

// jittered perturbs delay by a uniformly random whole-millisecond offset in
// [-delayMillis*jitter, +delayMillis*jitter], floored at zero. Spreading
// retries this way avoids synchronized retry storms across callers.
func jittered(delay time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return delay
	}

	if jitter > 1 {
		jitter = 1
	}

	maxJitter := int64(float64(delay.Milliseconds()) * jitter)
	if maxJitter <= 0 {
		return delay
	}

	offset := rand.Int64N(2*maxJitter+1) - maxJitter

	result := delay + time.Duration(offset)*time.Millisecond
	if result < 0 {
		return 0
	}

	return result
}
