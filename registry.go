package brace

import (
	"sync"
	"sync/atomic"
)

// ReadinessStatus is the result of checking all registered instances.
type ReadinessStatus struct {
	Tolerances []ToleranceStatus `json:"tolerances"`
	Ready      bool              `json:"ready"`
}

// Registry tracks HealthReporter instances and derives readiness. It also
// holds named [ToleranceConfig] values when built by [LoadConfig].
//
// Pattern: Singleton — [DefaultRegistry] lazily creates one shared registry
// via sync.OnceValue; explicit registries suit tests and multi-tenant
// setups.
type Registry struct {
	reporters atomic.Pointer[[]HealthReporter]
	configs   map[string]ToleranceConfig
	mu        sync.Mutex
}

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}

	var empty []HealthReporter

	r.reporters.Store(&empty)

	return r
}

// Register adds a HealthReporter. Called during startup by
// [NewFaultTolerance] for named instances; safe for concurrent use but
// intended for initialization.
func (r *Registry) Register(hr HealthReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()
	// Copy-on-write: concurrent readers iterate the old slice undisturbed.
	updated := make([]HealthReporter, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, hr)
	r.reporters.Store(&updated)
}

// CheckReadiness queries every registered instance and reports Ready only
// when all of them are healthy, i.e. no breaker is open.
func (r *Registry) CheckReadiness() ReadinessStatus {
	reporters := *r.reporters.Load()

	status := ReadinessStatus{
		Ready:      true,
		Tolerances: make([]ToleranceStatus, 0, len(reporters)),
	}

	for _, hr := range reporters {
		ts := hr.HealthStatus()
		status.Tolerances = append(status.Tolerances, ts)

		if !ts.Healthy {
			status.Ready = false
		}
	}

	return status
}

// DefaultRegistry returns the package-level registry, creating it on first
// call. Named instances built without [WithRegistry] land here.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
