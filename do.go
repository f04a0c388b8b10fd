package brace

import "context"

// Do wraps a single call with protection without creating a named
// [FaultTolerance]. An anonymous instance is built from opts and discarded
// after the call; it is not registered with any [Registry]. For hot paths,
// build the instance once and reuse it instead.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...any) (T, error) {
	ft := NewFaultTolerance[T]("", opts...)
	return ft.Do(ctx, fn)
}
