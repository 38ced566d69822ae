package minimize

import "dporsched/internal/model"

// TimerIterator enumerates the timer-marker ids in a trace, one-at-a-time,
// for the clusterizer's "try removing timers one by one" sweep. It never
// mutates the trace itself.
type TimerIterator struct {
	ids []uint64
}

// NewTimerIterator scans trace for timer-marker deliveries.
func NewTimerIterator(trace []model.Unique) *TimerIterator {
	t := &TimerIterator{}
	for _, u := range trace {
		if isTimer(u) {
			t.ids = append(t.ids, u.ID)
		}
	}
	return t
}

// Candidates returns a copy of the timer ids available for removal.
func (t *TimerIterator) Candidates() []uint64 {
	out := make([]uint64, len(t.ids))
	copy(out, t.ids)
	return out
}

// Len reports how many timer candidates remain.
func (t *TimerIterator) Len() int { return len(t.ids) }
