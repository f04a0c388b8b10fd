package brace

import "context"

// Pattern: Fallback — absorbs whatever error survives the inner stages and
// answers with a last-resort value instead.

// DoFallback executes fn. On error, the configured fallback value is
// returned in its place and the error is reported only through the
// OnFallbackUsed hook.
//
//nolint:ireturn,unparam // generic type parameter T; error always nil here
func DoFallback[T any](
	ctx context.Context,
	fn func(context.Context) (T, error),
	fallbackVal T,
	hooks *Hooks,
) (T, error) {
	result, err := fn(ctx)
	if err != nil {
		hooks.emitFallbackUsed(err)
		return fallbackVal, nil
	}

	return result, nil
}

// DoFallbackFunc executes fn. On error, fallbackFn is called with that
// error and its result stands in — including its error, so a fallback can
// still fail.
//
//nolint:ireturn // generic type parameter T, not an interface
func DoFallbackFunc[T any](
	ctx context.Context,
	fn func(context.Context) (T, error),
	fallbackFn func(error) (T, error),
	hooks *Hooks,
) (T, error) {
	result, err := fn(ctx)
	if err != nil {
		hooks.emitFallbackUsed(err)

		//nolint:wrapcheck // fallback function's error returned as-is
		return fallbackFn(err)
	}

	return result, nil
}
