package brace

import "context"

// Pattern: Decorator — each protection stage wraps the next, so the nesting
// order of the chain is the composition semantics.

// Middleware wraps a function call with additional behavior. A middleware
// receives the next function in the chain and returns a wrapped version.
type Middleware[T any] func(next func(context.Context) (T, error)) func(context.Context) (T, error)

// Chain composes middlewares into one. The first middleware is the
// outermost wrapper: Chain(a, b, c) produces a(b(c(next))). Chain() with no
// middlewares is the identity — it hands back next untouched, which is how
// a passthrough orchestrator runs the raw operation exactly once.
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}

		return next
	}
}
