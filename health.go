package brace

// HealthReporter is implemented by every FaultTolerance[T] instance. The
// interface is non-generic so instances with different type parameters sit
// in one registry.
type HealthReporter interface {
	// Name returns the instance name.
	Name() string
	// HealthStatus returns the instance's current health.
	HealthStatus() ToleranceStatus
}

// ToleranceStatus is the health of a single FaultTolerance instance. The
// circuit breaker is the only stateful stage, so health mirrors its state:
// an open breaker means the protected resource is down and the instance is
// unhealthy; half-open means it is probing recovery and still counts as
// healthy.
type ToleranceStatus struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Healthy bool   `json:"healthy"`
}

// HealthStatus derives the instance's health from its breaker state.
// Instances without a breaker are always healthy.
func (ft *FaultTolerance[T]) HealthStatus() ToleranceStatus {
	status := ToleranceStatus{
		Name:    ft.name,
		State:   "healthy",
		Healthy: true,
	}

	if ft.breaker == nil {
		return status
	}

	switch ft.breaker.State() {
	case StateOpen:
		status.Healthy = false
		status.State = "circuit_open"
	case StateHalfOpen:
		// Recovering is not unhealthy.
		status.State = "circuit_half_open"
	case StateClosed:
		// Healthy — nothing to change.
	}

	return status
}
