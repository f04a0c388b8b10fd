package brace

import (
	"context"
	"time"
)

// Pattern: Deadline — the composed call runs on its own goroutine so the
// caller can wait with a hard wall-clock bound and walk away the moment it
// elapses.

// DoTimeout executes fn with an overall deadline. fn is dispatched on a
// fresh goroutine with a cancellable derived context; the caller waits for
// whichever comes first: the result, the deadline, or the parent context
// ending.
//
// When the deadline elapses first the derived context is cancelled and
// *TimeoutError carrying the bound is returned immediately — fn is asked to
// abandon its work but not waited for. The result channel is buffered, so
// an abandoned fn never leaks blocked on send; its typed result pair simply
// goes unread, which is also why no internal wrapping ever reaches the
// caller. Parent cancellation surfaces as ctx.Err(), untranslated.
//
// hooks must be non-nil; use a zero &Hooks{} when no callbacks are needed.
//
//nolint:ireturn // generic type parameter T, not an interface
func DoTimeout[T any](
	ctx context.Context,
	timeout time.Duration,
	fn func(context.Context) (T, error),
	hooks *Hooks,
	clock Clock,
) (T, error) {
	var zero T

	// If the parent context is already done, don't even dispatch.
	if ctx.Err() != nil {
		return zero, ctx.Err() //nolint:wrapcheck // preserving context error identity
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		err error
		val T
	}

	ch := make(chan result, 1)

	go func() {
		v, err := fn(taskCtx)
		ch <- result{val: v, err: err}
	}()

	timer := clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.val, r.err

	case <-timer.C():
		cancel()
		hooks.emitTimeout()

		return zero, &TimeoutError{Timeout: timeout}

	case <-ctx.Done():
		return zero, ctx.Err() //nolint:wrapcheck // preserving context error identity
	}
}
