package minimize

// AmbiguityStrategy resolves which pending delivery a wildcard pattern
// should bind to when more than one candidate matches, optionally
// registering backtrack points so DPOR can retry the alternatives later.
// The four concrete strategies below trade off exhaustiveness against
// search cost (SPEC_FULL.md §4.4 / §9).
type AmbiguityStrategy interface {
	// Resolve returns the index into pending chosen for this wildcard, or
	// ok=false if no candidate satisfies pred. setBacktrack is called for
	// any alternative match the strategy wants DPOR to retry later.
	Resolve(pred WildCardPredicate, pending []PendingRef, setBacktrack func(PendingRef)) (int, bool)
}

// SrcDstFIFOOnly matches only if the head of the pending queue satisfies
// the predicate; otherwise it gives up on this delivery entirely (no
// backtrack points are registered).
type SrcDstFIFOOnly struct{}

func (SrcDstFIFOOnly) Resolve(pred WildCardPredicate, pending []PendingRef, setBacktrack func(PendingRef)) (int, bool) {
	if len(pending) == 0 || !pred(pending[0].Unique) {
		return -1, false
	}
	return pending[0].Index, true
}

// BackTrackStrategy matches the first matching message and additionally
// registers a backtrack point for every other match, in reverse order, so
// DPOR retries the most recently queued alternative first.
type BackTrackStrategy struct{}

func (BackTrackStrategy) Resolve(pred WildCardPredicate, pending []PendingRef, setBacktrack func(PendingRef)) (int, bool) {
	matches := matchAll(pred, pending)
	if len(matches) == 0 {
		return -1, false
	}
	for i := len(matches) - 1; i > 0; i-- {
		setBacktrack(matches[i])
	}
	return matches[0].Index, true
}

// FirstAndLastBacktrack matches the first matching message like
// BackTrackStrategy, but registers only one backtrack point: the last
// distinct match.
type FirstAndLastBacktrack struct{}

func (FirstAndLastBacktrack) Resolve(pred WildCardPredicate, pending []PendingRef, setBacktrack func(PendingRef)) (int, bool) {
	matches := matchAll(pred, pending)
	if len(matches) == 0 {
		return -1, false
	}
	if len(matches) > 1 {
		setBacktrack(matches[len(matches)-1])
	}
	return matches[0].Index, true
}

// LastOnlyStrategy matches only the last pending message satisfying the
// predicate, ignoring any earlier matches.
type LastOnlyStrategy struct{}

func (LastOnlyStrategy) Resolve(pred WildCardPredicate, pending []PendingRef, setBacktrack func(PendingRef)) (int, bool) {
	matches := matchAll(pred, pending)
	if len(matches) == 0 {
		return -1, false
	}
	last := matches[len(matches)-1]
	return last.Index, true
}

func matchAll(pred WildCardPredicate, pending []PendingRef) []PendingRef {
	var out []PendingRef
	for _, p := range pending {
		if pred(p.Unique) {
			out = append(out, p)
		}
	}
	return out
}
