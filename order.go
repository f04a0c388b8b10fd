package brace

import "sort"

// StageEntry holds a middleware with its priority for auto-ordering.
type StageEntry[T any] struct {
	MW       Middleware[T]
	Name     string
	Priority int
}

// Stage priorities fix the nesting of the composed call. Lower priority =
// outermost wrapper. The deadline bounds everything below it, the breaker
// admits or rejects the whole retry loop as one unit, and retry sits
// innermost, closest to the operation.
const (
	priorityFallback       = 0 // outermost — last resort
	priorityTimeout        = 1 // overall deadline, retries included
	priorityCircuitBreaker = 2
	priorityRetry          = 3 // innermost — drives the raw operation
)

// SortStages orders stage entries by priority (lowest first = outermost)
// and returns their middlewares. The sort is stable so stages sharing a
// priority keep their declaration order.
func SortStages[T any](entries []StageEntry[T]) []Middleware[T] {
	if len(entries) == 0 {
		return nil
	}

	// Copy to avoid mutating the caller's slice.
	sorted := make([]StageEntry[T], 0, len(entries))
	sorted = append(sorted, entries...)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	mws := make([]Middleware[T], 0, len(sorted))
	for _, e := range sorted {
		mws = append(mws, e.MW)
	}

	return mws
}
