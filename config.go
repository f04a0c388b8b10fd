package brace

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// configFile is the top-level JSON structure.
	configFile struct {
		Tolerances map[string]ToleranceConfig `json:"tolerances"`
	}

	// ToleranceConfig holds the decoded configuration for one protected
	// resource. Export it to embed in your own app config structs for JSON
	// or YAML unmarshaling, then call [BuildOptions] to obtain functional
	// options for [NewFaultTolerance].
	ToleranceConfig struct {
		// Retry configures the retry stage.
		// Optional. Example: {"max_attempts": 3, "backoff": "exponential",
		// "initial_delay": "500ms"}.
		Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
		// CircuitBreaker configures the circuit breaker stage.
		// Optional. Example: {"failure_threshold": 5}.
		CircuitBreaker *BreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
		// Timeout is the overall deadline for a composed call.
		// Optional. Parsed via time.ParseDuration. Example: "10s".
		Timeout *string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	}

	// BreakerConfig holds circuit breaker configuration values. Embed it
	// (via [ToleranceConfig]) in your own config struct for JSON or YAML
	// unmarshaling.
	BreakerConfig struct {
		// FailureThreshold is the number of consecutive failures that trip
		// the breaker. Optional. Example: 5.
		FailureThreshold *int `json:"failure_threshold,omitempty" yaml:"failure_threshold,omitempty"`
		// SuccessThreshold is the number of successful half-open trials
		// needed to close. Optional. Example: 2.
		SuccessThreshold *int `json:"success_threshold,omitempty" yaml:"success_threshold,omitempty"`
		// HalfOpenAfter is the cool-down before probing recovery.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		HalfOpenAfter *string `json:"half_open_after,omitempty" yaml:"half_open_after,omitempty"`
	}

	// RetryConfig holds retry configuration values. Embed it (via
	// [ToleranceConfig]) in your own config struct for JSON or YAML
	// unmarshaling.
	RetryConfig struct {
		// Backoff is the delay curve: "fixed" or "exponential".
		// Optional; omitting it keeps the default curve.
		Backoff *string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
		// Delay is the constant pause for the "fixed" curve.
		// Required with "fixed". Parsed via time.ParseDuration.
		Delay *string `json:"delay,omitempty" yaml:"delay,omitempty"`
		// InitialDelay is the first pause for the "exponential" curve.
		// Required with "exponential". Parsed via time.ParseDuration.
		InitialDelay *string `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
		// Multiplier is the exponential growth factor.
		// Optional; defaults to 2.
		Multiplier *float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
		// MaxDelay caps the exponential curve.
		// Optional; defaults to 5m. Parsed via time.ParseDuration.
		MaxDelay *string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
		// MaxAttempts is the total number of attempts including the first.
		// Optional. Example: 3.
		MaxAttempts *int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
		// Jitter is the fractional delay randomization in [0, 1].
		// Optional. Example: 0.1.
		Jitter *float64 `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	}
)

// LoadConfig reads a JSON configuration file and stores the tolerance
// configurations in a [Registry]. FaultTolerance instances are not created
// until [GetTolerance] is called, so the caller can supply the type
// parameter and additional code-level options there.
//
// Duration values (timeout, half_open_after, delay, initial_delay,
// max_delay) are parsed with [time.ParseDuration]. Backoff curves:
// "fixed", "exponential".
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brace: read config: %w", err)
	}

	var cfg configFile
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("brace: parse config: %w", err)
	}

	// Validate every entry eagerly so mistakes surface at load time.
	for name, tc := range cfg.Tolerances {
		if _, buildErr := BuildOptions(&tc); buildErr != nil {
			return nil, fmt.Errorf("brace: tolerance %q: %w", name, buildErr)
		}
	}

	reg := NewRegistry()
	reg.mu.Lock()
	reg.configs = cfg.Tolerances
	reg.mu.Unlock()

	return reg, nil
}

// BuildOptions converts a [ToleranceConfig] into option values for
// [NewFaultTolerance]. Use it directly when you embed [ToleranceConfig] in
// your own config struct instead of going through [LoadConfig].
func BuildOptions(tc *ToleranceConfig) ([]any, error) {
	var opts []any

	if tc.Timeout != nil {
		d, err := time.ParseDuration(*tc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}

		opts = append(opts, WithTimeout(d))
	}

	if tc.CircuitBreaker != nil {
		cbOpts, err := buildBreakerOptions(tc.CircuitBreaker)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithCircuitBreaker(cbOpts...))
	}

	if tc.Retry != nil {
		retryOpts, err := buildRetryOptions(tc.Retry)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithRetry(retryOpts...))
	}

	return opts, nil
}

func buildBreakerOptions(bc *BreakerConfig) ([]CircuitBreakerOption, error) {
	var cbOpts []CircuitBreakerOption

	if bc.FailureThreshold != nil {
		cbOpts = append(cbOpts, FailureThreshold(*bc.FailureThreshold))
	}

	if bc.SuccessThreshold != nil {
		cbOpts = append(cbOpts, SuccessThreshold(*bc.SuccessThreshold))
	}

	if bc.HalfOpenAfter != nil {
		d, err := time.ParseDuration(*bc.HalfOpenAfter)
		if err != nil {
			return nil, fmt.Errorf("circuit_breaker.half_open_after: %w", err)
		}

		cbOpts = append(cbOpts, HalfOpenAfter(d))
	}

	return cbOpts, nil
}

func buildRetryOptions(rc *RetryConfig) ([]RetryOption, error) {
	var retryOpts []RetryOption

	if rc.MaxAttempts != nil {
		retryOpts = append(retryOpts, MaxAttempts(*rc.MaxAttempts))
	}

	if rc.Jitter != nil {
		retryOpts = append(retryOpts, Jitter(*rc.Jitter))
	}

	backoff, err := parseBackoff(rc)
	if err != nil {
		return nil, fmt.Errorf("retry: %w", err)
	}

	if backoff != nil {
		retryOpts = append(retryOpts, WithBackoff(backoff))
	}

	return retryOpts, nil
}

// parseBackoff maps the config's curve name and durations onto a [Backoff].
// A nil curve name keeps the package default; nil is returned for it.
//
//nolint:ireturn // returns the sealed Backoff sum type by design
func parseBackoff(rc *RetryConfig) (Backoff, error) {
	if rc.Backoff == nil {
		return nil, nil
	}

	switch *rc.Backoff {
	case "fixed":
		if rc.Delay == nil {
			return nil, fmt.Errorf("backoff %q: delay is required", *rc.Backoff)
		}

		d, err := time.ParseDuration(*rc.Delay)
		if err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}

		return Fixed(d), nil

	case "exponential":
		if rc.InitialDelay == nil {
			return nil, fmt.Errorf("backoff %q: initial_delay is required", *rc.Backoff)
		}

		initial, err := time.ParseDuration(*rc.InitialDelay)
		if err != nil {
			return nil, fmt.Errorf("initial_delay: %w", err)
		}

		multiplier := defaultMultiplier
		if rc.Multiplier != nil {
			multiplier = *rc.Multiplier
		}

		maxDelay := defaultMaxDelay

		if rc.MaxDelay != nil {
			maxDelay, err = time.ParseDuration(*rc.MaxDelay)
			if err != nil {
				return nil, fmt.Errorf("max_delay: %w", err)
			}
		}

		return Exponential(initial, multiplier, maxDelay), nil

	default:
		return nil, fmt.Errorf("unknown backoff curve: %q", *rc.Backoff)
	}
}

// GetTolerance retrieves a named tolerance configuration from a
// config-loaded [Registry] and returns a typed instance ready for
// [FaultTolerance.Do]. Unknown names yield a bare instance built from opts
// alone.
//
// Code-level opts are applied after config options, so they take
// precedence — add hooks, a custom clock or fallbacks here.
func GetTolerance[T any](reg *Registry, name string, opts ...any) *FaultTolerance[T] {
	reg.mu.Lock()
	tc, ok := reg.configs[name]
	reg.mu.Unlock()

	var allOpts []any

	allOpts = append(allOpts, WithRegistry(reg))

	if ok {
		configOpts, err := BuildOptions(&tc)
		if err == nil {
			allOpts = append(allOpts, configOpts...)
		}
	}

	// Caller opts come last so they can override config values.
	allOpts = append(allOpts, opts...)

	return NewFaultTolerance[T](name, allOpts...)
}
