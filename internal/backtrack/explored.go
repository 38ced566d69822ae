package backtrack

import "dporsched/internal/model"

// pair is an (earlier, later) id pair already scheduled at some depth.
type pair struct {
	earlier uint64
	later   uint64
}

// Explored is the ExploredTracker: a memo from DepthIndex to the set of
// (earlier, later) id pairs already scheduled at that depth, so DPOR never
// re-enqueues the same race reversal.
type Explored struct {
	byDepth map[int]map[pair]struct{}
}

// NewExplored returns an empty ExploredTracker.
func NewExplored() *Explored {
	return &Explored{byDepth: make(map[int]map[pair]struct{})}
}

// Mark records that (earlier, later) has been scheduled at depthIndex.
func (e *Explored) Mark(depthIndex int, earlier, later model.Unique) {
	set, ok := e.byDepth[depthIndex]
	if !ok {
		set = make(map[pair]struct{})
		e.byDepth[depthIndex] = set
	}
	set[pair{earlier: earlier.ID, later: later.ID}] = struct{}{}
}

// Contains reports whether (earlier, later) was already scheduled at
// depthIndex.
func (e *Explored) Contains(depthIndex int, earlier, later model.Unique) bool {
	set, ok := e.byDepth[depthIndex]
	if !ok {
		return false
	}
	_, ok = set[pair{earlier: earlier.ID, later: later.ID}]
	return ok
}

// Trim discards entries with strictly higher depth indices than
// depthIndex: they are no longer reachable once a shallower branch is
// taken.
func (e *Explored) Trim(depthIndex int) {
	for d := range e.byDepth {
		if d > depthIndex {
			delete(e.byDepth, d)
		}
	}
}

// Size returns the total number of tracked (earlier, later) pairs, for
// tests and minimizer statistics.
func (e *Explored) Size() int {
	n := 0
	for _, set := range e.byDepth {
		n += len(set)
	}
	return n
}
