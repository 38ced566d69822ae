package minimize

import (
	"context"
	"sort"

	"dporsched/internal/model"
	"dporsched/internal/runtimecontract"
)

// Stats extends runtimecontract.Stats with clusterizer-specific counters,
// surfaced to callers (e.g. cmd/dpor) as the minimizer's search report.
type Stats struct {
	runtimecontract.Stats
	ClustersBlacklisted int
	TimersRemoved        int
}

// Clusterizer implements the "Iteration plan" of SPEC_FULL.md §4.4: try
// removing each clock cluster (and, within it, each timer) while the
// Oracle keeps reproducing the given fingerprint.
type Clusterizer struct {
	Oracle         runtimecontract.Oracle
	Aggressiveness Aggressiveness
	Absent         *AbsentTracker // optional; nil disables absent-aware pruning
}

// Run shrinks original while ctx has budget and the Oracle keeps
// reproducing fp against externals, returning the smallest trace found and
// search statistics. It never returns an error for "violation not
// reproduced" conditions (§7): those are recoverable and simply leave the
// candidate rejected.
func (c *Clusterizer) Run(ctx context.Context, externals []runtimecontract.ExternalEvent, original []model.Unique, fp runtimecontract.Fingerprint) ([]model.Unique, Stats, error) {
	var stats Stats
	blacklist := make(map[uint64]bool)
	best := append([]model.Unique(nil), original...)

	clusters, order := clusterize(original)

	test := func(candidate []model.Unique) bool {
		stats.Replays++
		select {
		case <-ctx.Done():
			return false
		default:
		}
		_, reproduced, err := c.Oracle.Test(ctx, externals, candidate, fp, &stats.Stats)
		return err == nil && reproduced
	}

	sweepTimers := func(base []model.Unique, exhaustive bool) []model.Unique {
		current := base
		for _, tid := range NewTimerIterator(base).Candidates() {
			if blacklist[tid] {
				continue
			}
			candidate := filterOutIDs(current, map[uint64]bool{tid: true})
			if test(candidate) {
				current = candidate
				blacklist[tid] = true
				stats.TimersRemoved++
				if !exhaustive {
					break
				}
			}
		}
		return current
	}

	// Iteration 0: all clusters present, sweep timers exhaustively.
	best = sweepTimers(best, true)

	for i, clock := range order {
		select {
		case <-ctx.Done():
			return best, stats, nil
		default:
		}

		ids := clusters[clock]
		if c.Absent != nil && allAbsent(c.Absent, ids) {
			for _, id := range ids {
				blacklist[id] = true
			}
			continue
		}

		candidate := filterOutIDs(best, idSet(ids))
		if !test(candidate) {
			continue
		}

		exhaustive := c.Aggressiveness == None || (c.Aggressiveness == AllTimersFirstIteration && i == 0)
		best = sweepTimers(candidate, exhaustive)
		for _, id := range ids {
			blacklist[id] = true
		}
		stats.ClustersBlacklisted++

		if c.Aggressiveness == StopImmediately {
			break
		}
	}

	return best, stats, nil
}

// clusterize groups trace ids by their ClockOf value, in ascending clock
// order; events without a clock are not clustered (always retained).
func clusterize(trace []model.Unique) (map[int64][]uint64, []int64) {
	clusters := make(map[int64][]uint64)
	var order []int64
	seen := make(map[int64]bool)
	for _, u := range trace {
		clock, ok := ClockOf(u)
		if !ok {
			continue
		}
		clusters[clock] = append(clusters[clock], u.ID)
		if !seen[clock] {
			seen[clock] = true
			order = append(order, clock)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return clusters, order
}

func idSet(ids []uint64) map[uint64]bool {
	out := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func filterOutIDs(trace []model.Unique, drop map[uint64]bool) []model.Unique {
	out := make([]model.Unique, 0, len(trace))
	for _, u := range trace {
		if drop[u.ID] {
			continue
		}
		out = append(out, u)
	}
	return out
}

// allAbsent reports whether every id in ids was previously recorded as
// absent against some earlier id; a conservative heuristic used only to
// skip redundant oracle calls when the AbsentTracker already knows this
// cluster contributes nothing.
func allAbsent(tracker *AbsentTracker, ids []uint64) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !tracker.HasAnyWithLater(id) {
			return false
		}
	}
	return true
}
