// Package backtrack implements the BackTrack priority queue and the
// ExploredTracker memo of already-scheduled interleavings.
package backtrack

import (
	"container/heap"

	"dporsched/internal/model"
)

// Entry is a single backtrack point: reversing (Earlier, Later) by
// re-running up to DepthIndex and then replaying ReplayPrefix.
type Entry struct {
	DepthIndex   int
	Later        model.Unique
	Earlier      model.Unique
	ReplayPrefix []model.Unique

	seq int // insertion sequence, for FIFO tie-break at equal DepthIndex
}

// Queue is the BackTrack priority queue: ordered by descending DepthIndex
// (deepest divergences first), ties broken by insertion order (FIFO).
//
// Queue is a thin wrapper over container/heap, matching the teacher's use
// of container/heap for its own deterministic min-heaps
// (internal/dag.intMinHeap).
type Queue struct {
	h       entryHeap
	nextSeq int
}

// New returns an empty BackTrack queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push enqueues a new backtrack entry.
func (q *Queue) Push(depthIndex int, later, earlier model.Unique, replayPrefix []model.Unique) {
	heap.Push(&q.h, &Entry{
		DepthIndex:   depthIndex,
		Later:        later,
		Earlier:      earlier,
		ReplayPrefix: replayPrefix,
		seq:          q.nextSeq,
	})
	q.nextSeq++
}

// Pop removes and returns the highest-priority entry (deepest DepthIndex,
// then earliest insertion). Reports false if the queue is empty.
func (q *Queue) Pop() (Entry, bool) {
	if q.h.Len() == 0 {
		return Entry{}, false
	}
	e := heap.Pop(&q.h).(*Entry)
	return *e, true
}

// Len returns the number of entries currently queued.
func (q *Queue) Len() int { return q.h.Len() }

type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].DepthIndex != h[j].DepthIndex {
		return h[i].DepthIndex > h[j].DepthIndex // descending depth
	}
	return h[i].seq < h[j].seq // FIFO tie-break
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
