package model

// Unique is a pair (event, id) giving a stable identity to each logical
// delivery across runs. id = 0 marks a system/noise event; two MsgEvents
// with id = 0 compare equal iff their receivers match (see Equal).
type Unique struct {
	Event Event
	ID    uint64
}

// RootUnique is the sentinel Unique at the base of the dependency graph.
var RootUnique = Unique{Event: Root, ID: RootID}

// IsNoise reports whether u is a system/noise event that must be skipped
// when scanning a trace for the next schedulable event (SpawnEvent, or any
// event carrying id = 0 other than the root itself).
func (u Unique) IsNoise() bool {
	if _, ok := u.Event.(SpawnEvent); ok {
		return true
	}
	return u.ID == NoiseID && u != RootUnique
}

// Equal implements the spec's equality rule: two MsgEvents with id = 0
// compare equal iff their receivers match; otherwise Uniques compare equal
// iff their ids match (ids are allocated uniquely per logical delivery, so
// id equality already implies event equality once both sides are non-noise).
func (u Unique) Equal(other Unique) bool {
	if u.ID != NoiseID && other.ID != NoiseID {
		return u.ID == other.ID
	}
	um, uok := u.Event.(MsgEvent)
	om, ook := other.Event.(MsgEvent)
	if uok && ook && u.ID == NoiseID && other.ID == NoiseID {
		return um.Receiver == om.Receiver
	}
	return u.ID == other.ID && sameKind(u.Event, other.Event)
}

func sameKind(a, b Event) bool { return a.Kind() == b.Kind() }

// IDAllocator monotonically allocates ids for newly observed deliveries.
// It is not safe for concurrent use; the scheduler driver that owns it is
// documented as single-threaded (spec §5).
type IDAllocator struct {
	next uint64
}

// NewIDAllocator returns an allocator whose first id is 1 (0 is reserved
// for the root/noise sentinel).
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next returns the next monotonically increasing id.
func (a *IDAllocator) Next() uint64 {
	id := a.next
	a.next++
	return id
}
