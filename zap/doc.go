// Package zap bridges fault-tolerance hooks to a zap logger.
//
// Hooks returns a brace.Hooks whose callbacks log every lifecycle event —
// retries, circuit transitions, timeouts, fallbacks and probe results — with
// the tolerance name attached as a structured field. Combine the result with
// other hook sets via brace.MergeHooks:
//
//	hooks := brace.MergeHooks(
//		bracezap.Hooks(logger, "payment-api"),
//		metrics.Hooks("payment-api"),
//	)
package zap
