package brace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// integrationClock drives the breaker's cool-down by hand while letting
// backoff sleeps complete instantly, so a multi-stage scenario runs start
// to finish without real waiting.
type integrationClock struct {
	mu      sync.Mutex
	elapsed time.Duration
}

func (c *integrationClock) Now() time.Time { return time.Now() }

func (c *integrationClock) Since(time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.elapsed
}

func (c *integrationClock) setElapsed(d time.Duration) {
	c.mu.Lock()
	c.elapsed = d
	c.mu.Unlock()
}

func (c *integrationClock) NewTimer(time.Duration) Timer {
	t := newTestTimer()
	t.fire()

	return t
}

// ---------------------------------------------------------------------------
// TestIntegrationFullLifecycle — fail, trip, reject, cool down, recover
// ---------------------------------------------------------------------------

func TestIntegrationFullLifecycle(t *testing.T) {
	clk := &integrationClock{}
	reg := NewRegistry()

	var retries, opens, halfOpens, closes, rejections, fallbacks int

	ft := NewFaultTolerance[string]("inventory-api",
		WithRegistry(reg),
		WithClock(clk),
		WithHooks(Hooks{
			OnRetry:           func(int, error) { retries++ },
			OnCircuitOpen:     func() { opens++ },
			OnCircuitHalfOpen: func() { halfOpens++ },
			OnCircuitClose:    func() { closes++ },
			OnCircuitRejected: func() { rejections++ },
			OnFallbackUsed:    func(error) { fallbacks++ },
		}),
		WithRetry(MaxAttempts(2), WithBackoff(Fixed(time.Millisecond)), Jitter(0)),
		WithCircuitBreaker(FailureThreshold(2), HalfOpenAfter(30*time.Second)),
		WithFallback("cached-inventory"),
	)

	ctx := context.Background()
	healthy := false
	opCalls := 0
	op := func(_ context.Context) (string, error) {
		opCalls++
		if !healthy {
			return "", errors.New("inventory service down")
		}

		return "live-inventory", nil
	}

	// Round 1: both attempts fail, the loop counts as ONE breaker failure,
	// the caller is served from the fallback.
	result, err := ft.Do(ctx, op)
	if err != nil || result != "cached-inventory" {
		t.Fatalf("round 1 = %q, %v, want cached-inventory, nil", result, err)
	}
	if opCalls != 2 {
		t.Fatalf("round 1 ran op %d times, want 2", opCalls)
	}
	if got := ft.CircuitBreaker().Failures(); got != 1 {
		t.Fatalf("round 1 breaker failures = %d, want 1", got)
	}

	// Round 2: second exhausted loop reaches the threshold and trips.
	result, _ = ft.Do(ctx, op)
	if result != "cached-inventory" {
		t.Fatalf("round 2 = %q, want cached-inventory", result)
	}
	if opCalls != 4 {
		t.Fatalf("round 2 ran op %d times, want 4 total", opCalls)
	}
	if opens != 1 {
		t.Fatalf("OnCircuitOpen fired %d times, want 1", opens)
	}

	// Round 3: rejected outright — the operation is never attempted, the
	// fallback still answers.
	result, err = ft.Do(ctx, op)
	if err != nil || result != "cached-inventory" {
		t.Fatalf("round 3 = %q, %v, want cached-inventory, nil", result, err)
	}
	if opCalls != 4 {
		t.Fatalf("round 3 ran op %d times, want still 4", opCalls)
	}
	if rejections != 1 {
		t.Fatalf("OnCircuitRejected fired %d times, want 1", rejections)
	}

	status := ft.HealthStatus()
	if status.Healthy || status.State != "circuit_open" {
		t.Fatalf("health while open = %+v, want unhealthy circuit_open", status)
	}
	if reg.CheckReadiness().Ready {
		t.Fatal("registry should not be ready while the breaker is open")
	}

	// Downstream recovers and the cool-down passes.
	healthy = true
	clk.setElapsed(31 * time.Second)

	status = ft.HealthStatus()
	if !status.Healthy || status.State != "circuit_half_open" {
		t.Fatalf("health after cool-down = %+v, want healthy circuit_half_open", status)
	}
	if halfOpens != 1 {
		t.Fatalf("OnCircuitHalfOpen fired %d times, want 1", halfOpens)
	}
	if !reg.CheckReadiness().Ready {
		t.Fatal("probing breaker should not block readiness")
	}

	// Round 4: the half-open trial succeeds and closes the breaker.
	result, err = ft.Do(ctx, op)
	if err != nil || result != "live-inventory" {
		t.Fatalf("round 4 = %q, %v, want live-inventory, nil", result, err)
	}
	if closes != 1 {
		t.Fatalf("OnCircuitClose fired %d times, want 1", closes)
	}

	// Round 5: plain closed-state traffic.
	result, err = ft.Do(ctx, op)
	if err != nil || result != "live-inventory" {
		t.Fatalf("round 5 = %q, %v, want live-inventory, nil", result, err)
	}

	if retries != 2 {
		t.Fatalf("OnRetry fired %d times, want 2 (one per failing round)", retries)
	}
	if fallbacks != 3 {
		t.Fatalf("OnFallbackUsed fired %d times, want 3", fallbacks)
	}
	if !reg.CheckReadiness().Ready {
		t.Fatal("registry should be ready after recovery")
	}
}

// ---------------------------------------------------------------------------
// TestIntegrationReadinessEndpoint — breaker state drives the HTTP probe
// ---------------------------------------------------------------------------

func TestIntegrationReadinessEndpoint(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	reg := NewRegistry()

	ft := NewFaultTolerance[int]("payment-gateway",
		WithRegistry(reg),
		WithClock(clk),
		WithCircuitBreaker(FailureThreshold(1)),
	)

	srv := httptest.NewServer(ReadinessHandler(reg))
	defer srv.Close()

	fetch := func() (int, ReadinessStatus) {
		t.Helper()

		resp, err := http.Get(srv.URL) //nolint:noctx // test helper
		if err != nil {
			t.Fatalf("GET readiness: %v", err)
		}
		defer resp.Body.Close()

		var status ReadinessStatus
		if decodeErr := json.NewDecoder(resp.Body).Decode(&status); decodeErr != nil {
			t.Fatalf("decode readiness body: %v", decodeErr)
		}

		return resp.StatusCode, status
	}

	// Fresh instance: ready.
	code, status := fetch()
	if code != http.StatusOK || !status.Ready {
		t.Fatalf("fresh probe = %d ready=%v, want 200 ready", code, status.Ready)
	}

	// Trip the breaker: probe goes unavailable and names the culprit.
	_, _ = ft.Do(context.Background(), func(_ context.Context) (int, error) {
		return 0, errors.New("gateway down")
	})

	code, status = fetch()
	if code != http.StatusServiceUnavailable || status.Ready {
		t.Fatalf("tripped probe = %d ready=%v, want 503 not ready", code, status.Ready)
	}
	if len(status.Tolerances) != 1 || status.Tolerances[0].State != "circuit_open" {
		t.Fatalf("tripped body = %+v, want circuit_open entry", status.Tolerances)
	}

	// Operator resets the breaker: ready again.
	ft.CircuitBreaker().Reset()

	code, status = fetch()
	if code != http.StatusOK || !status.Ready {
		t.Fatalf("reset probe = %d ready=%v, want 200 ready", code, status.Ready)
	}
}

// ---------------------------------------------------------------------------
// TestIntegrationHealerRecoversSharedBreaker — healer closes what traffic tripped
// ---------------------------------------------------------------------------

func TestIntegrationHealerRecoversSharedBreaker(t *testing.T) {
	clk := &stubClock{now: time.Now()}

	shared := NewCircuitBreaker(clk, &Hooks{}, FailureThreshold(1))
	ft := NewFaultTolerance[string]("orders-db", WithRegistry(NewRegistry()),
		WithClock(clk),
		WithSharedCircuitBreaker(shared),
	)

	// Traffic trips the shared breaker.
	_, _ = ft.Do(context.Background(), func(_ context.Context) (string, error) {
		return "", errors.New("db down")
	})

	if got := shared.State(); got != StateOpen {
		t.Fatalf("State() = %v, want open after failure", got)
	}

	// The healer's probe succeeds and resets it out of band.
	h := NewHealer(time.Minute, clk, &Hooks{})
	h.Watch("orders-db", shared, func(_ context.Context) error {
		return nil
	})
	h.CheckNow(context.Background())

	if got := shared.State(); got != StateClosed {
		t.Fatalf("State() = %v, want closed after heal", got)
	}

	// Traffic flows again without waiting out the cool-down.
	result, err := ft.Do(context.Background(), func(_ context.Context) (string, error) {
		return "rows", nil
	})
	if err != nil || result != "rows" {
		t.Fatalf("Do() after heal = %q, %v, want rows, nil", result, err)
	}
}
