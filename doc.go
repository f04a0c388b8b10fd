// Package brace protects calls to unreliable operations — network calls,
// model inference, database access — by composing retry-with-backoff, a
// circuit breaker, and an overall deadline into one reusable wrapper.
//
// The central type is FaultTolerance[T]: build it once per protected
// resource with functional options, then run operations through Do. The
// deadline bounds the whole call, the circuit breaker admits or rejects it,
// and the retry policy drives attempts innermost. Named instances report
// breaker health for Kubernetes readiness probes.
package brace
