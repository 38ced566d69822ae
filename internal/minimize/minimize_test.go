package minimize

import (
	"context"
	"testing"

	"dporsched/internal/model"
	"dporsched/internal/runtimecontract"
)

func clocked(id uint64, clock int64) model.Unique {
	return model.Unique{
		Event: model.MsgEvent{Receiver: "A", Payload: model.ClockedBytesPayload{Clock: clock, HasClock: true}},
		ID:    id,
	}
}

func timer(id uint64) model.Unique {
	return model.Unique{Event: model.MsgEvent{Receiver: "A", Payload: model.TimerMarker{TimerName: "t"}}, ID: id}
}

type boolFingerprint bool

func (b boolFingerprint) Equal(other runtimecontract.Fingerprint) bool {
	o, ok := other.(boolFingerprint)
	return ok && bool(b) == bool(o)
}

// fakeOracle reproduces the fingerprint iff the candidate trace retains
// every id in `required`.
type fakeOracle struct {
	required map[uint64]bool
}

func (f *fakeOracle) Test(ctx context.Context, externals []runtimecontract.ExternalEvent, candidate []model.Unique, fp runtimecontract.Fingerprint, stats *runtimecontract.Stats) ([]model.Unique, bool, error) {
	present := make(map[uint64]bool, len(candidate))
	for _, u := range candidate {
		present[u.ID] = true
	}
	for id, need := range f.required {
		if need && !present[id] {
			return candidate, false, nil
		}
	}
	return candidate, true, nil
}

func TestClockOf_ExtractsClockedPayload(t *testing.T) {
	u := clocked(1, 5)
	clock, ok := ClockOf(u)
	if !ok || clock != 5 {
		t.Fatalf("ClockOf = (%d, %v), want (5, true)", clock, ok)
	}
	if _, ok := ClockOf(model.Unique{Event: model.MsgEvent{Payload: model.BytesPayload{}}}); ok {
		t.Fatalf("expected unclocked payload to report ok=false")
	}
}

func TestClusterize_GroupsByClockAscending(t *testing.T) {
	trace := []model.Unique{clocked(1, 3), clocked(2, 1), clocked(3, 3), clocked(4, 2)}
	clusters, order := clusterize(trace)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected cluster order: %v", order)
	}
	if len(clusters[3]) != 2 {
		t.Fatalf("expected 2 ids in cluster 3, got %v", clusters[3])
	}
}

func TestClusterizer_Run_RemovesEverythingWhenOracleAlwaysReproduces(t *testing.T) {
	trace := []model.Unique{clocked(1, 1), clocked(2, 2), timer(3)}
	c := &Clusterizer{Oracle: &fakeOracle{}, Aggressiveness: None}
	best, stats, err := c.Run(context.Background(), nil, trace, boolFingerprint(true))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(best) != 0 {
		t.Fatalf("expected every cluster and timer removable, got %v", best)
	}
	if stats.ClustersBlacklisted != 2 || stats.TimersRemoved != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestClusterizer_Run_RetainsRequiredIDs(t *testing.T) {
	trace := []model.Unique{clocked(1, 1), clocked(2, 2), timer(3)}
	c := &Clusterizer{Oracle: &fakeOracle{required: map[uint64]bool{1: true}}, Aggressiveness: None}
	best, _, err := c.Run(context.Background(), nil, trace, boolFingerprint(true))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, u := range best {
		if u.ID == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected id 1 to survive minimization since the oracle requires it, got %v", best)
	}
	if len(best) != 1 {
		t.Fatalf("expected every other id to still be removable, got %v", best)
	}
}

func TestWildCard_Predicate(t *testing.T) {
	w := WildCard{Receiver: "A"}
	pred := w.Predicate()
	if !pred(model.Unique{Event: model.MsgEvent{Receiver: "A"}}) {
		t.Fatalf("expected wildcard with empty Sender to match any sender")
	}
	if pred(model.Unique{Event: model.MsgEvent{Receiver: "B"}}) {
		t.Fatalf("expected receiver mismatch to not match")
	}
}

func TestAmbiguityStrategies(t *testing.T) {
	refs := []PendingRef{
		{Index: 0, Unique: model.Unique{Event: model.MsgEvent{Receiver: "A"}, ID: 1}},
		{Index: 1, Unique: model.Unique{Event: model.MsgEvent{Receiver: "A"}, ID: 2}},
		{Index: 2, Unique: model.Unique{Event: model.MsgEvent{Receiver: "B"}, ID: 3}},
	}
	pred := WildCard{Receiver: "A"}.Predicate()

	var backtracks []PendingRef
	set := func(r PendingRef) { backtracks = append(backtracks, r) }

	if idx, ok := (SrcDstFIFOOnly{}).Resolve(pred, refs, set); !ok || idx != 0 {
		t.Fatalf("SrcDstFIFOOnly.Resolve = (%d, %v), want (0, true)", idx, ok)
	}

	backtracks = nil
	if idx, ok := (BackTrackStrategy{}).Resolve(pred, refs, set); !ok || idx != 0 {
		t.Fatalf("BackTrackStrategy.Resolve = (%d, %v), want (0, true)", idx, ok)
	}
	if len(backtracks) != 1 || backtracks[0].Index != 1 {
		t.Fatalf("expected one backtrack at index 1, got %v", backtracks)
	}

	if idx, ok := (LastOnlyStrategy{}).Resolve(pred, refs, set); !ok || idx != 1 {
		t.Fatalf("LastOnlyStrategy.Resolve = (%d, %v), want (1, true)", idx, ok)
	}

	nonMatching := WildCard{Receiver: "Z"}.Predicate()
	if _, ok := (SrcDstFIFOOnly{}).Resolve(nonMatching, refs, set); ok {
		t.Fatalf("expected no match for an unsatisfiable predicate")
	}
}

func TestAbsentTracker(t *testing.T) {
	a := NewAbsentTracker()
	a.RecordAbsent(1, 2)
	if !a.IsAbsent(1, 2) {
		t.Fatalf("expected (1,2) to be recorded")
	}
	if a.IsAbsent(1, 3) {
		t.Fatalf("expected (1,3) to not be recorded")
	}
	if !a.HasAnyWithLater(2) {
		t.Fatalf("expected HasAnyWithLater(2) to be true")
	}
	if a.Size() != 1 {
		t.Fatalf("expected size 1, got %d", a.Size())
	}
}
