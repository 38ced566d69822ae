package dpor

import (
	"dporsched/internal/depgraph"
	"dporsched/internal/model"
)

// Dep is the result of AnalyzeDep: the index to branch the replay at, and
// the sequence of Uniques to replay after it to realize the reversed race.
type Dep struct {
	BranchIndex  int
	ReplayPrefix []model.Unique
}

// AnalyzeDep implements the §4.3 table. It returns ok=false when the pair
// does not fall into one of the three documented transitions: a
// Partition/Partition pair (which CoEnabled admits as "co-enabled" but which
// carries no racing receiver to reverse against), or any pair where either
// side is neither a MsgEvent nor a NetworkPartition.
func AnalyzeDep(g *depgraph.Graph, trace []model.Unique, earlierIdx, laterIdx int) (Dep, bool) {
	earlier := trace[earlierIdx]
	later := trace[laterIdx]

	_, earlierIsMsg := msgOf(earlier)
	_, laterIsMsg := msgOf(later)
	earlierIsPartition := isPartition(earlier)
	laterIsPartition := isPartition(later)

	switch {
	case earlierIsMsg && laterIsPartition:
		return Dep{
			BranchIndex:  earlierIdx,
			ReplayPrefix: []model.Unique{later, earlier},
		}, true

	case earlierIsPartition && laterIsMsg:
		prefix := append([]model.Unique{}, trace[earlierIdx+1:laterIdx+1]...)
		prefix = append(prefix, earlier)
		return Dep{
			BranchIndex:  earlierIdx - 1,
			ReplayPrefix: prefix,
		}, true

	case earlierIsMsg && laterIsMsg:
		ancestorID := g.LastSharedAncestor(earlier.ID, later.ID)
		branchIdx := indexOfID(trace, ancestorID, earlierIdx)
		prefix := make([]model.Unique, 0, laterIdx-branchIdx)
		for i := branchIdx + 1; i <= laterIdx; i++ {
			if trace[i].ID == earlier.ID {
				continue
			}
			prefix = append(prefix, trace[i])
		}
		return Dep{
			BranchIndex:  branchIdx,
			ReplayPrefix: prefix,
		}, true

	default:
		return Dep{}, false
	}
}

// indexOfID finds the trace position of the Unique with the given id,
// searching trace[0:upperBoundExclusive+1]. The root sentinel (id 0) is
// treated as occupying position -1, one before the start of the trace,
// since it was never actually dispatched.
func indexOfID(trace []model.Unique, id uint64, upperBoundExclusive int) int {
	if id == model.RootID {
		return -1
	}
	for i := 0; i <= upperBoundExclusive && i < len(trace); i++ {
		if trace[i].ID == id {
			return i
		}
	}
	return -1
}
