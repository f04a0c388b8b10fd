package zap

import (
	"go.uber.org/zap"

	"github.com/vantorre/brace"
)

// Hooks returns a hook set that logs every fault-tolerance event through
// logger. The tolerance name is attached to each entry as a field, so one
// logger can serve any number of tolerances.
//
// Levels follow severity: state degradations (circuit opening, timeouts) log
// at error, recoveries and half-open probes at info, and per-call events
// (retries, rejections, fallbacks) at warn.
func Hooks(logger *zap.Logger, tolerance string) brace.Hooks {
	log := logger.With(zap.String("tolerance", tolerance))

	return brace.Hooks{
		OnRetry: func(attempt int, err error) {
			log.Warn("retrying operation",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
		OnCircuitOpen: func() {
			log.Error("circuit opened")
		},
		OnCircuitClose: func() {
			log.Info("circuit closed")
		},
		OnCircuitHalfOpen: func() {
			log.Info("circuit half-open, probing")
		},
		OnCircuitRejected: func() {
			log.Warn("call rejected by open circuit")
		},
		OnTimeout: func() {
			log.Error("operation timed out")
		},
		OnFallbackUsed: func(err error) {
			log.Warn("fallback used", zap.Error(err))
		},
		OnProbeRecovered: func(resource string) {
			log.Info("probe recovered resource",
				zap.String("resource", resource),
			)
		},
		OnProbeFailed: func(resource string, err error) {
			log.Warn("probe failed",
				zap.String("resource", resource),
				zap.Error(err),
			)
		},
	}
}
