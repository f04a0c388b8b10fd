package brace

import "time"

// Pattern: Factory Function — each preset produces a ready-made option
// bundle for a common shape of remote dependency.

// StandardRemoteCall returns options suitable for a typical remote
// dependency: 10s overall deadline, the default retry policy (3 attempts,
// exponential backoff from 500ms, 10% jitter), and a circuit breaker with
// the default 5-failure threshold and 30s cool-down.
func StandardRemoteCall() []any {
	return []any{
		WithTimeout(10 * time.Second),
		WithRetry(),
		WithCircuitBreaker(),
	}
}

// AggressiveRemoteCall returns options for latency-sensitive callers: 2s
// overall deadline, 5 attempts with fast exponential backoff from 50ms
// capped at 2s, and a breaker that trips after 3 failures and probes again
// after 15s.
func AggressiveRemoteCall() []any {
	return []any{
		WithTimeout(2 * time.Second),
		WithRetry(
			MaxAttempts(5),
			WithBackoff(Exponential(50*time.Millisecond, 2, 2*time.Second)),
		),
		WithCircuitBreaker(
			FailureThreshold(3),
			HalfOpenAfter(15*time.Second),
		),
	}
}
