package dpor

import (
	"dporsched/internal/backtrack"
	"dporsched/internal/depgraph"
	"dporsched/internal/model"
)

// Result is the outcome of a completed Analyze pass: whether a new trace
// prefix was found, and if so, the prefix itself plus the (earlier, later)
// pair it reverses. internal/scheduler does not read Earlier or Later: no
// per-run queue of the expected pair is kept, and replay divergence is
// detected only by comparing each dispatch against NextTrace.
type Result struct {
	Done         bool
	NextTrace    []model.Unique
	Earlier      model.Unique
	Later        model.Unique
	BranchIndex  int
}

// Analyze runs the full DPOR pass described in §4.3 over a completed
// CurrentTrace: race detection (every co-enabled pair), AnalyzeDep, and
// next-prefix selection from BackTrack honoring ExploredTracker.
//
// bt and explored are owned by the caller (they persist across
// interleavings, per the data model's lifecycle note) and are mutated in
// place.
func Analyze(g *depgraph.Graph, trace []model.Unique, bt *backtrack.Queue, explored *backtrack.Explored) Result {
	detectRaces(g, trace, bt, explored)
	return nextPrefix(trace, bt, explored)
}

// detectRaces enqueues a BackTrack entry for every co-enabled pair whose
// AnalyzeDep succeeds and that is not already in ExploredTracker.
func detectRaces(g *depgraph.Graph, trace []model.Unique, bt *backtrack.Queue, explored *backtrack.Explored) {
	for laterIdx := 1; laterIdx < len(trace); laterIdx++ {
		later := trace[laterIdx]
		for earlierIdx := 0; earlierIdx < laterIdx; earlierIdx++ {
			earlier := trace[earlierIdx]
			if !CoEnabled(g, earlier, later) {
				continue
			}
			dep, ok := AnalyzeDep(g, trace, earlierIdx, laterIdx)
			if !ok {
				continue
			}
			if explored.Contains(dep.BranchIndex, earlier, later) {
				continue
			}
			bt.Push(dep.BranchIndex, later, earlier, dep.ReplayPrefix)
			explored.Mark(dep.BranchIndex, earlier, later)
		}
	}
}

// nextPrefix pops BackTrack (deepest first) and builds the next trace to
// run. It does not consult the explored tracker: detectRaces already skips
// pairs marked explored before it enqueues them.
func nextPrefix(trace []model.Unique, bt *backtrack.Queue, explored *backtrack.Explored) Result {
	for {
		entry, ok := bt.Pop()
		if !ok {
			return Result{Done: true}
		}

		if entry.BranchIndex < 0 || entry.BranchIndex >= len(trace) {
			// A branch point outside the current trace can no longer be
			// realized (the trace it was computed against has since been
			// superseded); discard and keep looking.
			continue
		}

		next := make([]model.Unique, 0, entry.BranchIndex+1+len(entry.ReplayPrefix))
		next = append(next, trace[:entry.BranchIndex+1]...)
		next = append(next, entry.ReplayPrefix...)

		explored.Trim(entry.BranchIndex)

		return Result{
			Done:        false,
			NextTrace:   next,
			Earlier:     entry.Earlier,
			Later:       entry.Later,
			BranchIndex: entry.BranchIndex,
		}
	}
}
