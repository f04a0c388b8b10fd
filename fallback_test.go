package brace

import (
	"context"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// DoFallback: success passes through
// ---------------------------------------------------------------------------

func TestDoFallbackSuccessPassesThrough(t *testing.T) {
	used := 0
	hooks := &Hooks{
		OnFallbackUsed: func(error) { used++ },
	}

	result, err := DoFallback[string](
		context.Background(),
		func(_ context.Context) (string, error) {
			return "ok", nil
		},
		"fallback-value",
		hooks,
	)

	if err != nil {
		t.Fatalf("DoFallback() error = %v, want nil", err)
	}
	if result != "ok" {
		t.Fatalf("DoFallback() = %q, want %q", result, "ok")
	}
	if used != 0 {
		t.Fatalf("OnFallbackUsed fired %d times on success, want 0", used)
	}
}

// ---------------------------------------------------------------------------
// DoFallback: error replaced by the fallback value
// ---------------------------------------------------------------------------

func TestDoFallbackAbsorbsError(t *testing.T) {
	sentinel := errors.New("downstream down")

	var hookErr error
	hooks := &Hooks{
		OnFallbackUsed: func(err error) { hookErr = err },
	}

	result, err := DoFallback[string](
		context.Background(),
		func(_ context.Context) (string, error) {
			return "", sentinel
		},
		"cached",
		hooks,
	)

	if err != nil {
		t.Fatalf("DoFallback() error = %v, want nil", err)
	}
	if result != "cached" {
		t.Fatalf("DoFallback() = %q, want %q", result, "cached")
	}
	// The absorbed error is still observable through the hook.
	if !errors.Is(hookErr, sentinel) {
		t.Fatalf("OnFallbackUsed err = %v, want %v", hookErr, sentinel)
	}
}

// ---------------------------------------------------------------------------
// DoFallbackFunc
// ---------------------------------------------------------------------------

func TestDoFallbackFuncReceivesFinalError(t *testing.T) {
	sentinel := errors.New("downstream down")

	result, err := DoFallbackFunc[string](
		context.Background(),
		func(_ context.Context) (string, error) {
			return "", sentinel
		},
		func(cause error) (string, error) {
			if !errors.Is(cause, sentinel) {
				t.Fatalf("fallback received %v, want %v", cause, sentinel)
			}
			return "derived", nil
		},
		&Hooks{},
	)

	if err != nil {
		t.Fatalf("DoFallbackFunc() error = %v, want nil", err)
	}
	if result != "derived" {
		t.Fatalf("DoFallbackFunc() = %q, want %q", result, "derived")
	}
}

func TestDoFallbackFuncCanItselfFail(t *testing.T) {
	fallbackErr := errors.New("fallback also down")

	_, err := DoFallbackFunc[string](
		context.Background(),
		func(_ context.Context) (string, error) {
			return "", errors.New("primary down")
		},
		func(error) (string, error) {
			return "", fallbackErr
		},
		&Hooks{},
	)

	if !errors.Is(err, fallbackErr) {
		t.Fatalf("DoFallbackFunc() error = %v, want the fallback's own error", err)
	}
}

func TestDoFallbackFuncSuccessSkipsFallback(t *testing.T) {
	called := false

	result, err := DoFallbackFunc[int](
		context.Background(),
		func(_ context.Context) (int, error) {
			return 7, nil
		},
		func(error) (int, error) {
			called = true
			return 0, nil
		},
		&Hooks{},
	)

	if err != nil || result != 7 {
		t.Fatalf("DoFallbackFunc() = %d, %v, want 7, nil", result, err)
	}
	if called {
		t.Fatal("fallback function ran despite success")
	}
}
