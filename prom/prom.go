package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vantorre/brace"
)

// Circuit state gauge values, matching the ordinals of brace.State.
const (
	gaugeClosed   = 0
	gaugeOpen     = 1
	gaugeHalfOpen = 2
)

// Metrics holds the brace collectors. Create one per Prometheus registry
// with [NewMetrics], then hand each protected resource its own labelled
// hooks via [Metrics.Hooks].
type Metrics struct {
	retries     *prometheus.CounterVec
	timeouts    *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	state       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if a collector with the same name is already registered, which
// is the usual MustRegister contract.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brace_retries_total",
			Help: "Retried attempts, by tolerance name.",
		}, []string{"tolerance"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brace_timeouts_total",
			Help: "Calls that exceeded their overall deadline, by tolerance name.",
		}, []string{"tolerance"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brace_circuit_rejections_total",
			Help: "Calls rejected without execution by an open breaker, by tolerance name.",
		}, []string{"tolerance"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brace_fallbacks_total",
			Help: "Calls answered by a fallback value, by tolerance name.",
		}, []string{"tolerance"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brace_circuit_transitions_total",
			Help: "Circuit breaker state transitions, by tolerance name and target state.",
		}, []string{"tolerance", "to"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "brace_circuit_state",
			Help: "Current circuit breaker state: 0 closed, 1 open, 2 half_open.",
		}, []string{"tolerance"}),
	}

	reg.MustRegister(
		m.retries,
		m.timeouts,
		m.rejections,
		m.fallbacks,
		m.transitions,
		m.state,
	)

	return m
}

// Hooks returns a brace.Hooks that feeds these collectors under the given
// tolerance label. Pass it to brace.WithHooks, or merge it with other
// consumers via brace.MergeHooks.
func (m *Metrics) Hooks(tolerance string) brace.Hooks {
	return brace.Hooks{
		OnRetry: func(int, error) {
			m.retries.WithLabelValues(tolerance).Inc()
		},
		OnTimeout: func() {
			m.timeouts.WithLabelValues(tolerance).Inc()
		},
		OnCircuitRejected: func() {
			m.rejections.WithLabelValues(tolerance).Inc()
		},
		OnFallbackUsed: func(error) {
			m.fallbacks.WithLabelValues(tolerance).Inc()
		},
		OnCircuitOpen: func() {
			m.transitions.WithLabelValues(tolerance, "open").Inc()
			m.state.WithLabelValues(tolerance).Set(gaugeOpen)
		},
		OnCircuitHalfOpen: func() {
			m.transitions.WithLabelValues(tolerance, "half_open").Inc()
			m.state.WithLabelValues(tolerance).Set(gaugeHalfOpen)
		},
		OnCircuitClose: func() {
			m.transitions.WithLabelValues(tolerance, "closed").Inc()
			m.state.WithLabelValues(tolerance).Set(gaugeClosed)
		},
	}
}
