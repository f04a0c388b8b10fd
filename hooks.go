package brace

// Hooks holds optional callback functions for protection lifecycle events.
// All fields are nil by default; callers set only the hooks they care about.
// Once constructed, a Hooks value must not be mutated — emit methods read
// the function fields without synchronisation, which is safe as long as the
// struct is read-only after initialisation.
//
// Pattern: Observer — decouples event emission from consumers (logging,
// metrics, alerting) without the patterns knowing about observers.
type Hooks struct {
	// OnRetry fires after a failed attempt, before the backoff sleep.
	// attempt is 1-based and names the attempt that just failed.
	OnRetry func(attempt int, err error)
	// OnCircuitOpen fires when the breaker trips to open, including a
	// reopen from a failed half-open trial.
	OnCircuitOpen func()
	// OnCircuitClose fires when enough half-open trials succeed.
	OnCircuitClose func()
	// OnCircuitHalfOpen fires on the lazy open-to-half-open transition.
	OnCircuitHalfOpen func()
	// OnCircuitRejected fires when a call is rejected without execution,
	// either because the breaker is open or the trial slot is taken.
	OnCircuitRejected func()
	// OnTimeout fires when a call exceeds its overall deadline.
	OnTimeout func()
	// OnFallbackUsed fires when a fallback value or function absorbs err.
	OnFallbackUsed func(err error)
	// OnProbeRecovered fires when a healer probe succeeds and the
	// resource's breaker is reset.
	OnProbeRecovered func(resource string)
	// OnProbeFailed fires when a healer probe fails.
	OnProbeFailed func(resource string, err error)
}

func (h *Hooks) emitRetry(attempt int, err error) {
	if h.OnRetry != nil {
		h.OnRetry(attempt, err)
	}
}

func (h *Hooks) emitCircuitOpen() {
	if h.OnCircuitOpen != nil {
		h.OnCircuitOpen()
	}
}

func (h *Hooks) emitCircuitClose() {
	if h.OnCircuitClose != nil {
		h.OnCircuitClose()
	}
}

func (h *Hooks) emitCircuitHalfOpen() {
	if h.OnCircuitHalfOpen != nil {
		h.OnCircuitHalfOpen()
	}
}

func (h *Hooks) emitCircuitRejected() {
	if h.OnCircuitRejected != nil {
		h.OnCircuitRejected()
	}
}

func (h *Hooks) emitTimeout() {
	if h.OnTimeout != nil {
		h.OnTimeout()
	}
}

func (h *Hooks) emitFallbackUsed(err error) {
	if h.OnFallbackUsed != nil {
		h.OnFallbackUsed(err)
	}
}

func (h *Hooks) emitProbeRecovered(resource string) {
	if h.OnProbeRecovered != nil {
		h.OnProbeRecovered(resource)
	}
}

func (h *Hooks) emitProbeFailed(resource string, err error) {
	if h.OnProbeFailed != nil {
		h.OnProbeFailed(resource, err)
	}
}

// MergeHooks combines several Hooks values into one that fans each event
// out to every non-nil callback, in argument order. Use it to feed the same
// lifecycle events to both metrics and logging consumers.
func MergeHooks(list ...Hooks) Hooks {
	var merged Hooks

	for _, h := range list {
		if h.OnRetry != nil {
			prev := merged.OnRetry
			cur := h.OnRetry
			merged.OnRetry = func(attempt int, err error) {
				if prev != nil {
					prev(attempt, err)
				}
				cur(attempt, err)
			}
		}

		if h.OnCircuitOpen != nil {
			merged.OnCircuitOpen = chain0(merged.OnCircuitOpen, h.OnCircuitOpen)
		}

		if h.OnCircuitClose != nil {
			merged.OnCircuitClose = chain0(merged.OnCircuitClose, h.OnCircuitClose)
		}

		if h.OnCircuitHalfOpen != nil {
			merged.OnCircuitHalfOpen = chain0(merged.OnCircuitHalfOpen, h.OnCircuitHalfOpen)
		}

		if h.OnCircuitRejected != nil {
			merged.OnCircuitRejected = chain0(merged.OnCircuitRejected, h.OnCircuitRejected)
		}

		if h.OnTimeout != nil {
			merged.OnTimeout = chain0(merged.OnTimeout, h.OnTimeout)
		}

		if h.OnFallbackUsed != nil {
			prev := merged.OnFallbackUsed
			cur := h.OnFallbackUsed
			merged.OnFallbackUsed = func(err error) {
				if prev != nil {
					prev(err)
				}
				cur(err)
			}
		}

		if h.OnProbeRecovered != nil {
			prev := merged.OnProbeRecovered
			cur := h.OnProbeRecovered
			merged.OnProbeRecovered = func(resource string) {
				if prev != nil {
					prev(resource)
				}
				cur(resource)
			}
		}

		if h.OnProbeFailed != nil {
			prev := merged.OnProbeFailed
			cur := h.OnProbeFailed
			merged.OnProbeFailed = func(resource string, err error) {
				if prev != nil {
					prev(resource, err)
				}
				cur(resource, err)
			}
		}
	}

	return merged
}

// chain0 sequences two zero-argument callbacks; prev may be nil.
func chain0(prev, cur func()) func() {
	if prev == nil {
		return cur
	}

	return func() {
		prev()
		cur()
	}
}
