package scheduler

import (
	"context"
	"testing"

	"dporsched/internal/model"
	"dporsched/internal/obslog"
	"dporsched/internal/runtimecontract"
)

// fakeRuntime is a minimal runtimecontract.Runtime stand-in for unit tests
// that only need to observe calls, not actually run goroutines; the
// integration-style scenarios in scenarios_test.go drive a real
// internal/simruntime runtime instead.
type fakeRuntime struct {
	handles    map[string]runtimecontract.Handle
	dispatched []runtimecontract.Envelope
	restarts   int
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{handles: make(map[string]runtimecontract.Handle)}
}

func (f *fakeRuntime) ActorOf(props runtimecontract.ActorProps, name string) (runtimecontract.Handle, error) {
	f.handles[name] = name
	return name, nil
}
func (f *fakeRuntime) ActorMappings() map[string]runtimecontract.Handle { return f.handles }
func (f *fakeRuntime) Send(handle runtimecontract.Handle, msg model.Payload) error { return nil }
func (f *fakeRuntime) DispatchNewMessage(cell runtimecontract.Cell, env runtimecontract.Envelope) error {
	f.dispatched = append(f.dispatched, env)
	return nil
}
func (f *fakeRuntime) RestartSystem(ctx context.Context) error { f.restarts++; return nil }
func (f *fakeRuntime) AwaitEnqueue(ctx context.Context) error  { return nil }

func newTestEngine() (*Engine, *fakeRuntime) {
	rt := newFakeRuntime()
	e := New(rt, obslog.Nop(), Config{MaxDepth: 100, DivergencePolicy: DivergenceInformational})
	return e, rt
}

func TestEngine_EventProduced_ThenScheduleDispatches(t *testing.T) {
	e, _ := newTestEngine()
	if err := e.EventProduced("cellA", "envA", "client", "A", model.BytesPayload{Data: []byte("hi")}); err != nil {
		t.Fatalf("EventProduced: %v", err)
	}

	cell, env, ok := e.ScheduleNewMessage()
	if !ok {
		t.Fatalf("expected a schedulable message")
	}
	if cell != "cellA" || env != "envA" {
		t.Fatalf("expected the dispatched cell/env to match what was produced, got %v %v", cell, env)
	}
	trace := e.CurrentTrace()
	if len(trace) != 1 {
		t.Fatalf("expected CurrentTrace to contain the dispatched message, got %v", trace)
	}
}

func TestEngine_GetOrCreateMessage_ReusesSiblingID(t *testing.T) {
	e, _ := newTestEngine()
	p := model.BytesPayload{Data: []byte("same")}
	u1 := e.GetOrCreateMessage("s", "A", p)
	if err := e.graph.AddChild(u1, e.parentCursor, 0); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	u2 := e.GetOrCreateMessage("s", "A", model.BytesPayload{Data: []byte("same")})
	if u1.ID != u2.ID {
		t.Fatalf("expected GetOrCreateMessage to reuse the sibling id, got %d and %d", u1.ID, u2.ID)
	}
}

func TestEngine_PriorityLaneDispatchesBeforeReceiverLanes(t *testing.T) {
	e, rt := newTestEngine()
	// Partition notices are addressed by the runtime's actor handles.
	_, _ = rt.ActorOf(nil, "A")
	_, _ = rt.ActorOf(nil, "B")
	if err := e.EventProduced("cellA", "envA", "client", "A", model.BytesPayload{}); err != nil {
		t.Fatalf("EventProduced: %v", err)
	}
	e.dispatchPartition(model.Unique{Event: model.NetworkPartition{GroupA: []string{"A"}, GroupB: []string{"B"}}, ID: 999})

	cell, _, ok := e.ScheduleNewMessage()
	if !ok {
		t.Fatalf("expected something schedulable")
	}
	if cell != "A" {
		t.Fatalf("expected the priority-lane NodesUnreachable notice to dispatch first, got cell %v", cell)
	}
}

func TestEngine_DepthBoundPreventsEnqueue(t *testing.T) {
	rt := newFakeRuntime()
	e := New(rt, obslog.Nop(), Config{MaxDepth: 0, DivergencePolicy: DivergenceInformational})
	if err := e.EventProduced("c", "e", "s", "A", model.BytesPayload{}); err != nil {
		t.Fatalf("EventProduced: %v", err)
	}
	if _, _, ok := e.ScheduleNewMessage(); ok {
		t.Fatalf("expected depth bound to prevent any scheduling")
	}
	if e.graph.Size() != 2 {
		t.Fatalf("expected the event to still be recorded in the graph, got size %d", e.graph.Size())
	}
}

func TestEngine_PartitionedMessageIsDroppedSilently(t *testing.T) {
	e, _ := newTestEngine()
	e.addPartition([]string{"A"}, []string{"B"})
	if err := e.EventProduced("c", "e", "A", "B", model.BytesPayload{}); err != nil {
		t.Fatalf("EventProduced: %v", err)
	}
	if _, _, ok := e.ScheduleNewMessage(); ok {
		t.Fatalf("expected partitioned message to be dropped, not dispatched")
	}
}

func TestEngine_NotifyQuiescence_AnalyzesFinishedInterleaving(t *testing.T) {
	e, rt := newTestEngine()
	// Two sends to the same receiver, the second produced after the first
	// was dispatched; NotifyQuiescence then runs dpor.Analyze on the trace.
	if err := e.EventProduced("c1", "e1", "x", "A", model.BytesPayload{Data: []byte("1")}); err != nil {
		t.Fatalf("EventProduced m1: %v", err)
	}
	if _, _, ok := e.ScheduleNewMessage(); !ok {
		t.Fatalf("expected m1 schedulable")
	}
	if err := e.EventProduced("c2", "e2", "y", "A", model.BytesPayload{Data: []byte("2")}); err != nil {
		t.Fatalf("EventProduced m2: %v", err)
	}
	// m2 was made a child of m1 by the parent-cursor rule, so this pair
	// will not race (it is causally ordered); this test only checks that
	// a finished interleaving with nothing left to schedule triggers
	// dpor.Analyze and either restarts or terminates cleanly.
	if _, _, ok := e.ScheduleNewMessage(); !ok {
		// Nothing else pending: interleaving complete.
	}
	if err := e.NotifyQuiescence(); err != nil {
		t.Fatalf("NotifyQuiescence: %v", err)
	}
	if !e.done && rt.restarts == 0 {
		t.Fatalf("expected either completion or a RestartSystem call")
	}
}
