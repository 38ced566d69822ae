package backtrack

import (
	"testing"

	"dporsched/internal/model"
)

func u(id uint64) model.Unique { return model.Unique{Event: model.MsgEvent{}, ID: id} }

func TestQueue_Pop_DeepestFirst(t *testing.T) {
	q := New()
	q.Push(1, u(10), u(1), nil)
	q.Push(5, u(11), u(2), nil)
	q.Push(3, u(12), u(3), nil)

	e, ok := q.Pop()
	if !ok || e.DepthIndex != 5 {
		t.Fatalf("expected deepest entry first, got %+v ok=%v", e, ok)
	}
	e, ok = q.Pop()
	if !ok || e.DepthIndex != 3 {
		t.Fatalf("expected depth 3 second, got %+v", e)
	}
	e, ok = q.Pop()
	if !ok || e.DepthIndex != 1 {
		t.Fatalf("expected depth 1 last, got %+v", e)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestQueue_Pop_FIFOTieBreak(t *testing.T) {
	q := New()
	q.Push(2, u(1), u(1), nil)
	q.Push(2, u(2), u(2), nil)
	q.Push(2, u(3), u(3), nil)

	var order []uint64
	for {
		e, ok := q.Pop()
		if !ok {
			break
		}
		order = append(order, e.Later.ID)
	}
	want := []uint64{1, 2, 3}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestExplored_MarkContainsTrim(t *testing.T) {
	e := NewExplored()
	e.Mark(3, u(1), u(2))
	if !e.Contains(3, u(1), u(2)) {
		t.Fatalf("expected marked pair to be contained")
	}
	if e.Contains(4, u(1), u(2)) {
		t.Fatalf("expected different depth to not be contained")
	}
	e.Mark(7, u(5), u(6))
	e.Trim(3)
	if e.Contains(7, u(5), u(6)) {
		t.Fatalf("expected Trim(3) to discard depth 7 entries")
	}
	if !e.Contains(3, u(1), u(2)) {
		t.Fatalf("expected Trim(3) to keep depth-3 entries")
	}
}
