package scheduler

import "dporsched/internal/minimize"

// DivergencePolicy controls what the engine does with a replay divergence
// (the expected (earlier, later) pair from a BackTrack-driven prefix is not
// consumed because the runtime produced a different interleaving instead).
//
// [EXPANSION, resolves Open Question]: the distilled spec left this as an
// open question ("is a divergence retryable-as-minimization-absent, or
// purely informational?"). Both policies are real and useful, so it is
// exposed as a knob rather than decided once for all callers.
type DivergencePolicy int

const (
	// DivergenceInformational logs the divergence at debug and otherwise
	// ignores it. This is the default.
	DivergenceInformational DivergencePolicy = iota
	// DivergenceFeedsAbsentTracking additionally forwards the missed pair
	// to an AbsentTracker (internal/minimize), so the clusterizer can drop
	// those ids from future candidate traces instead of re-discovering
	// that they never fire.
	DivergenceFeedsAbsentTracking
)

// AbsentRecorder is the minimal surface of internal/minimize.AbsentTracker
// the engine needs. Kept as a narrow local interface rather than importing
// *minimize.AbsentTracker directly, so a test can substitute a fake without
// constructing a real tracker.
type AbsentRecorder interface {
	RecordAbsent(earlierID, laterID uint64)
}

// WildcardStrategy is the ambiguity-resolution knob used when a
// replay-guided expected Unique has no literal FindEquivalent match on its
// lane (the minimizer pruned its original predecessor, shifting the
// pending shape): the engine falls back to a (sender, receiver) pattern
// match via minimize.AmbiguityStrategy rather than treating this as an
// ordinary divergence. Nil disables wildcard fallback, so replay
// divergence is always reported literally (the default).
type WildcardStrategy = minimize.AmbiguityStrategy
