// Package prom bridges brace lifecycle hooks to Prometheus.
//
// Metrics owns the collectors; Metrics.Hooks produces a brace.Hooks bound
// to one tolerance name, so several instances can share the same
// registered collectors and differ only by label.
package prom
