package brace_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vantorre/brace"
)

// ---------------------------------------------------------------------------
// Transient wrapping and detection
// ---------------------------------------------------------------------------

func TestTransientWrapsError(t *testing.T) {
	cause := errors.New("connection reset")
	err := brace.Transient(cause)

	if err == nil {
		t.Fatal("Transient(non-nil) returned nil")
	}
	if got := err.Error(); got != "transient: connection reset" {
		t.Fatalf("Error() = %q, want %q", got, "transient: connection reset")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through the transient wrapper")
	}
}

func TestTransientNilReturnsNil(t *testing.T) {
	if err := brace.Transient(nil); err != nil {
		t.Fatalf("Transient(nil) = %v, want nil", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicitly transient", brace.Transient(errors.New("x")), true},
		{"unclassified", errors.New("x"), true},
		{"explicitly permanent", brace.Permanent(errors.New("x")), false},
		{"permanent under fmt wrapping", fmt.Errorf("ctx: %w", brace.Permanent(errors.New("x"))), false},
	}
	for _, tc := range cases {
		if got := brace.IsTransient(tc.err); got != tc.want {
			t.Fatalf("IsTransient(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Permanent wrapping and detection
// ---------------------------------------------------------------------------

func TestPermanentWrapsError(t *testing.T) {
	cause := errors.New("schema mismatch")
	err := brace.Permanent(cause)

	if err == nil {
		t.Fatal("Permanent(non-nil) returned nil")
	}
	if got := err.Error(); got != "permanent: schema mismatch" {
		t.Fatalf("Error() = %q, want %q", got, "permanent: schema mismatch")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through the permanent wrapper")
	}
}

func TestPermanentNilReturnsNil(t *testing.T) {
	if err := brace.Permanent(nil); err != nil {
		t.Fatalf("Permanent(nil) = %v, want nil", err)
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicitly permanent", brace.Permanent(errors.New("x")), true},
		{"unclassified", errors.New("x"), false},
		{"explicitly transient", brace.Transient(errors.New("x")), false},
		{"permanent under fmt wrapping", fmt.Errorf("ctx: %w", brace.Permanent(errors.New("x"))), true},
	}
	for _, tc := range cases {
		if got := brace.IsPermanent(tc.err); got != tc.want {
			t.Fatalf("IsPermanent(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TimeoutError
// ---------------------------------------------------------------------------

func TestTimeoutErrorMessage(t *testing.T) {
	err := &brace.TimeoutError{Timeout: 1500 * time.Millisecond}

	if got := err.Error(); got != "operation timed out after 1.5s" {
		t.Fatalf("Error() = %q, want %q", got, "operation timed out after 1.5s")
	}
}

func TestTimeoutErrorMatchesSentinel(t *testing.T) {
	var err error = &brace.TimeoutError{Timeout: time.Second}

	if !errors.Is(err, brace.ErrTimeout) {
		t.Fatal("errors.Is(TimeoutError, ErrTimeout) = false, want true")
	}

	var te *brace.TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("errors.As failed to extract *TimeoutError")
	}
	if te.Timeout != time.Second {
		t.Fatalf("Timeout = %v, want 1s", te.Timeout)
	}
}

// ---------------------------------------------------------------------------
// ExhaustedError
// ---------------------------------------------------------------------------

func TestExhaustedErrorMessage(t *testing.T) {
	err := &brace.ExhaustedError{
		Attempts: 3,
		Cause:    errors.New("boom"),
	}

	want := "retries exhausted after 3 attempt(s): boom"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestExhaustedErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("last failure")
	var err error = &brace.ExhaustedError{Attempts: 2, Cause: cause}

	if !errors.Is(err, brace.ErrRetriesExhausted) {
		t.Fatal("errors.Is(ExhaustedError, ErrRetriesExhausted) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable via errors.Is")
	}

	var ee *brace.ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatal("errors.As failed to extract *ExhaustedError")
	}
	if ee.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", ee.Attempts)
	}
}

// ---------------------------------------------------------------------------
// FaultError marker
// ---------------------------------------------------------------------------

func TestProtectionErrorsAreFaults(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"ErrCircuitOpen", brace.ErrCircuitOpen},
		{"ErrTimeout", brace.ErrTimeout},
		{"ErrRetriesExhausted", brace.ErrRetriesExhausted},
		{"TimeoutError", &brace.TimeoutError{Timeout: time.Second}},
		{"ExhaustedError", &brace.ExhaustedError{Attempts: 1, Cause: errors.New("x")}},
	}
	for _, tc := range cases {
		fe, ok := tc.err.(brace.FaultError) //nolint:errorlint // direct assertion is the contract
		if !ok {
			t.Fatalf("%s does not implement FaultError", tc.name)
		}
		if !fe.IsFault() {
			t.Fatalf("%s.IsFault() = false, want true", tc.name)
		}
	}
}

func TestOperationErrorsAreNotFaults(t *testing.T) {
	var plain error = errors.New("app error")

	if _, ok := plain.(brace.FaultError); ok { //nolint:errorlint // direct assertion is the contract
		t.Fatal("plain errors must not implement FaultError")
	}
}

// ---------------------------------------------------------------------------
// Sentinel messages
// ---------------------------------------------------------------------------

func TestSentinelMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{brace.ErrCircuitOpen, "circuit breaker is open"},
		{brace.ErrTimeout, "operation timed out"},
		{brace.ErrRetriesExhausted, "retries exhausted"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
}
