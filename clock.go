package brace

import "time"

// Clock abstracts the passage of time so backoff sleeps, breaker cool-downs
// and operation deadlines can be driven deterministically in tests.
// Production code uses [RealClock]; tests substitute a fake.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// NewTimer creates a [Timer] that fires after d.
	NewTimer(d time.Duration) Timer
}

// Timer abstracts [time.Timer] so fake clocks can hand out controllable
// timers.
type Timer interface {
	// C returns the channel on which the firing time is delivered.
	C() <-chan time.Time
	// Stop prevents the timer from firing and reports whether it was
	// stopped before it fired.
	Stop() bool
	// Reset re-arms the timer to fire after d and reports whether it was
	// active before the reset.
	Reset(d time.Duration) bool
}

// RealClock is a zero-value [Clock] backed by the time package. It holds no
// state and is safe for concurrent use.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewTimer returns a [Timer] backed by [time.NewTimer].
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{inner: time.NewTimer(d)}
}

type realTimer struct {
	inner *time.Timer
}

func (t *realTimer) C() <-chan time.Time        { return t.inner.C }
func (t *realTimer) Stop() bool                 { return t.inner.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.inner.Reset(d) }
