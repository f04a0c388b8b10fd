package brace

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentProbes bounds the probe fan-out of one healer round.
const maxConcurrentProbes = 4

// ProbeFunc checks whether a downstream resource has recovered. It should
// be cheap and side-effect free — a ping, a shallow health endpoint — and
// return nil when the resource looks usable again.
type ProbeFunc func(ctx context.Context) error

type healTarget struct {
	breaker *CircuitBreaker
	probe   ProbeFunc
}

// Healer periodically probes resources whose circuit breaker is not closed
// and resets the breaker as soon as a probe succeeds. Without it, recovery
// waits for real traffic to trickle through half-open; with it, a quiet
// resource comes back on the healer's schedule.
//
// The interval runs on a [Clock] timer; probe rounds run concurrently but
// bounded. Probe outcomes surface through the OnProbeRecovered and
// OnProbeFailed hooks.
type Healer struct {
	clock Clock
	hooks *Hooks

	interval time.Duration

	mu      sync.Mutex
	targets map[string]healTarget
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewHealer creates a healer probing every interval. hooks must be
// non-nil; use a zero &Hooks{} when no callbacks are needed.
func NewHealer(interval time.Duration, clock Clock, hooks *Hooks) *Healer {
	return &Healer{
		interval: interval,
		clock:    clock,
		hooks:    hooks,
		targets:  make(map[string]healTarget),
	}
}

// Watch registers a resource: its breaker and the probe that decides
// recovery. Re-registering a resource name replaces its target. Safe for
// concurrent use.
func (h *Healer) Watch(resource string, cb *CircuitBreaker, probe ProbeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.targets[resource] = healTarget{breaker: cb, probe: probe}
}

// Start launches the probe loop on its own goroutine. It returns
// immediately; the loop runs until ctx ends or [Healer.Stop] is called.
// Starting a running healer is a no-op.
func (h *Healer) Start(ctx context.Context) {
	h.mu.Lock()

	if h.running {
		h.mu.Unlock()
		return
	}

	h.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	done := h.done

	h.mu.Unlock()

	go func() {
		defer close(done)
		h.loop(loopCtx)
	}()
}

// Stop halts the probe loop and waits for it to exit. Stopping a stopped
// healer is a no-op.
func (h *Healer) Stop() {
	h.mu.Lock()

	if !h.running {
		h.mu.Unlock()
		return
	}

	h.running = false
	cancel := h.cancel
	done := h.done

	h.mu.Unlock()

	cancel()
	<-done
}

func (h *Healer) loop(ctx context.Context) {
	timer := h.clock.NewTimer(h.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C():
			h.CheckNow(ctx)
			timer.Reset(h.interval)
		}
	}
}

// CheckNow runs one probe round synchronously: every watched resource
// whose breaker is open or half-open is probed, at most
// maxConcurrentProbes at a time. A successful probe resets the resource's
// breaker to closed. Failed probes only emit OnProbeFailed — the breaker
// keeps its own accounting.
func (h *Healer) CheckNow(ctx context.Context) {
	h.mu.Lock()
	snapshot := make(map[string]healTarget, len(h.targets))
	for name, t := range h.targets {
		snapshot[name] = t
	}
	h.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)

	for name, t := range snapshot {
		if t.breaker.State() == StateClosed {
			continue
		}

		g.Go(func() error {
			if err := t.probe(ctx); err != nil {
				h.hooks.emitProbeFailed(name, err)

				// Probe failures never abort sibling probes.
				return nil
			}

			t.breaker.Reset()
			h.hooks.emitProbeRecovered(name)

			return nil
		})
	}

	//nolint:errcheck // probe goroutines always return nil
	_ = g.Wait()
}
