package depgraph

import (
	"testing"

	"dporsched/internal/model"
)

func msg(id uint64, receiver string) model.Unique {
	return model.Unique{Event: model.MsgEvent{Receiver: receiver}, ID: id}
}

func TestGraph_AddChild_BuildsPathToRoot(t *testing.T) {
	g := New()
	a := msg(1, "actorA")
	if err := g.AddChild(a, model.RootUnique, 0); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	b := msg(2, "actorB")
	if err := g.AddChild(b, a, 0); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	path := g.PathToRoot(b.ID)
	want := []uint64{2, 1, model.RootID}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}

func TestGraph_AddChild_IdempotentSameParent(t *testing.T) {
	g := New()
	a := msg(1, "actorA")
	if err := g.AddChild(a, model.RootUnique, 0); err != nil {
		t.Fatalf("first AddChild: %v", err)
	}
	if err := g.AddChild(a, model.RootUnique, 0); err != nil {
		t.Fatalf("idempotent re-insert should not error: %v", err)
	}
	if got := len(g.Children(model.RootID)); got != 1 {
		t.Fatalf("expected exactly one child after idempotent insert, got %d", got)
	}
}

func TestGraph_AddChild_RejectsReparent(t *testing.T) {
	g := New()
	a := msg(1, "actorA")
	b := msg(2, "actorB")
	if err := g.AddChild(a, model.RootUnique, 0); err != nil {
		t.Fatalf("AddChild a: %v", err)
	}
	if err := g.AddChild(b, model.RootUnique, 0); err != nil {
		t.Fatalf("AddChild b: %v", err)
	}
	if err := g.AddChild(a, b, 0); err == nil {
		t.Fatalf("expected error reparenting an existing node")
	}
}

func TestGraph_HasPath(t *testing.T) {
	g := New()
	a := msg(1, "x")
	b := msg(2, "x")
	c := msg(3, "y")
	_ = g.AddChild(a, model.RootUnique, 0)
	_ = g.AddChild(b, a, 0)
	_ = g.AddChild(c, model.RootUnique, 0)

	if !g.HasPath(b.ID, a.ID) {
		t.Fatalf("expected path from b to its ancestor a")
	}
	if g.HasPath(c.ID, a.ID) {
		t.Fatalf("expected no path between unrelated branches")
	}
}

func TestGraph_LastSharedAncestor(t *testing.T) {
	g := New()
	a := msg(1, "x")
	b := msg(2, "x")
	c := msg(3, "x")
	_ = g.AddChild(a, model.RootUnique, 0)
	_ = g.AddChild(b, a, 0)
	_ = g.AddChild(c, a, 0)

	if got := g.LastSharedAncestor(b.ID, c.ID); got != a.ID {
		t.Fatalf("LastSharedAncestor(b, c) = %d, want %d", got, a.ID)
	}
	if got := g.LastSharedAncestor(a.ID, model.RootID); got != model.RootID {
		t.Fatalf("LastSharedAncestor(a, root) = %d, want root", got)
	}
}

func TestGraph_CheckInvariants(t *testing.T) {
	g := New()
	a := msg(1, "x")
	_ = g.AddChild(a, model.RootUnique, 0)
	g.AddOrphan(model.Unique{Event: model.NetworkPartition{}, ID: 2}, 0)

	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}
