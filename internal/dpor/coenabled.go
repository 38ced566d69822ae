// Package dpor implements the race-detection and replay-prefix-construction
// algorithm described in SPEC_FULL.md §4.3: co-enabledness, AnalyzeDep, and
// the top-level Analyze pass run once per completed interleaving.
package dpor

import (
	"dporsched/internal/depgraph"
	"dporsched/internal/model"
)

// msgOf extracts the MsgEvent and ok=true if u wraps one.
func msgOf(u model.Unique) (model.MsgEvent, bool) {
	m, ok := u.Event.(model.MsgEvent)
	return m, ok
}

func isPartition(u model.Unique) bool {
	_, ok := u.Event.(model.NetworkPartition)
	return ok
}

func isQuiescence(u model.Unique) bool {
	_, ok := u.Event.(model.WaitQuiescence)
	return ok
}

// CoEnabled implements the §4.3 co-enabledness test.
func CoEnabled(g *depgraph.Graph, earlier, later model.Unique) bool {
	if isPartition(earlier) || isPartition(later) {
		return true
	}
	if isQuiescence(earlier) || isQuiescence(later) {
		return false
	}
	em, eok := msgOf(earlier)
	lm, lok := msgOf(later)
	if !eok || !lok {
		return false
	}
	if em.Receiver != lm.Receiver {
		return false
	}
	eEpoch, eHas := g.QuiescentEpoch(earlier.ID)
	lEpoch, lHas := g.QuiescentEpoch(later.ID)
	if !eHas || !lHas || eEpoch != lEpoch {
		return false
	}
	// Neither causally precedes the other.
	if g.HasPath(later.ID, earlier.ID) || g.HasPath(earlier.ID, later.ID) {
		return false
	}
	return true
}
