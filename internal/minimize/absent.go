package minimize

// AbsentTracker records (earlier, later) id pairs that a replay-divergence
// callback reported as "expected but never fired", so the clusterizer can
// drop those ids from future candidate traces instead of re-discovering
// on every iteration that they never reproduce anything. It satisfies
// internal/scheduler.AbsentRecorder structurally.
type AbsentTracker struct {
	absent map[[2]uint64]bool
}

// NewAbsentTracker returns an empty tracker.
func NewAbsentTracker() *AbsentTracker {
	return &AbsentTracker{absent: make(map[[2]uint64]bool)}
}

// RecordAbsent marks (earlierID, laterID) as having diverged.
func (a *AbsentTracker) RecordAbsent(earlierID, laterID uint64) {
	a.absent[[2]uint64{earlierID, laterID}] = true
}

// IsAbsent reports whether (earlierID, laterID) was previously recorded.
func (a *AbsentTracker) IsAbsent(earlierID, laterID uint64) bool {
	return a.absent[[2]uint64{earlierID, laterID}]
}

// HasAnyWithLater reports whether some recorded pair names laterID as the
// id that never fired, regardless of which id it was expected after.
func (a *AbsentTracker) HasAnyWithLater(laterID uint64) bool {
	for pair := range a.absent {
		if pair[1] == laterID {
			return true
		}
	}
	return false
}

// Size returns the number of distinct pairs recorded.
func (a *AbsentTracker) Size() int { return len(a.absent) }
