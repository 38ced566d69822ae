package model

// Payload is the application-level message content carried by a MsgEvent.
// Equivalence is explicit via EquivalentTo rather than via reflection over
// the concrete Go type, per the "never reflect over runtime class names"
// design note.
type Payload interface {
	// EquivalentTo reports whether two payloads represent the same logical
	// send from the same logical state, for the purposes of
	// GetOrCreateMessage's sibling lookup.
	EquivalentTo(other Payload) bool
}

// BytesPayload is a structurally-equal-by-value payload: two BytesPayloads
// are equivalent iff their bytes are identical. Most application messages
// in tests and examples use this.
type BytesPayload struct {
	Data []byte
}

// EquivalentTo implements Payload.
func (p BytesPayload) EquivalentTo(other Payload) bool {
	o, ok := other.(BytesPayload)
	if !ok {
		return false
	}
	if len(p.Data) != len(o.Data) {
		return false
	}
	for i := range p.Data {
		if p.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// TimerMarker is a payload wrapping a scheduled timer tick. Two timer
// markers are equivalent iff (Receiver, TimerName, InnerMsg, Repeating)
// match; the transient Token is ignored, since it changes on every
// schedule even when the logical timer is "the same".
type TimerMarker struct {
	Receiver   string
	TimerName  string
	InnerMsg   Payload
	Repeating  bool
	Token      string
	// CausesClockIncrement marks timers whose firing advances a logical
	// clock. It is carried through internal/tracelog encoding; internal/minimize
	// does not read it (it recognizes timers with IsTimerMarker alone).
	CausesClockIncrement bool
}

// EquivalentTo implements Payload, ignoring Token.
func (t TimerMarker) EquivalentTo(other Payload) bool {
	o, ok := other.(TimerMarker)
	if !ok {
		return false
	}
	if t.Receiver != o.Receiver || t.TimerName != o.TimerName || t.Repeating != o.Repeating {
		return false
	}
	if t.InnerMsg == nil || o.InnerMsg == nil {
		return t.InnerMsg == nil && o.InnerMsg == nil
	}
	return t.InnerMsg.EquivalentTo(o.InnerMsg)
}

// IsTimerMarker reports whether p is a timer marker, via explicit type
// assertion (never reflection), per the design note in SPEC_FULL.md §9.
func IsTimerMarker(p Payload) bool {
	_, ok := p.(TimerMarker)
	return ok
}

// ClockedPayload is implemented by payloads that carry an application-level
// logical clock value, consumed by the clock-cluster minimizer (§4.4).
// Payloads that do not implement it are treated as clock-less and are
// always retained by the minimizer.
type ClockedPayload interface {
	Payload
	LogicalClock() (value int64, ok bool)
}

// ClockedBytesPayload is a BytesPayload tagged with a logical clock value.
type ClockedBytesPayload struct {
	BytesPayload
	Clock   int64
	HasClock bool
}

// LogicalClock implements ClockedPayload.
func (p ClockedBytesPayload) LogicalClock() (int64, bool) { return p.Clock, p.HasClock }

// EquivalentTo overrides BytesPayload's to also require matching clocks,
// since a clocked payload is conceptually a different message at a
// different protocol step even if the raw bytes happen to coincide.
func (p ClockedBytesPayload) EquivalentTo(other Payload) bool {
	o, ok := other.(ClockedBytesPayload)
	if !ok {
		return false
	}
	if p.Clock != o.Clock || p.HasClock != o.HasClock {
		return false
	}
	return p.BytesPayload.EquivalentTo(o.BytesPayload)
}

// NodesUnreachablePayload is the per-actor notification the driver
// synthesizes when decomposing a NetworkPartition dispatch (§4.1): each
// affected actor is told which peer names it can no longer reach. It never
// participates in GetOrCreateMessage sibling matching or DPOR analysis as
// its own event kind; it rides the ordinary MsgEvent wire format so the
// runtime's dispatch path stays uniform.
type NodesUnreachablePayload struct {
	Unreachable []string
}

// EquivalentTo compares the unreachable sets by value.
func (p NodesUnreachablePayload) EquivalentTo(other Payload) bool {
	o, ok := other.(NodesUnreachablePayload)
	if !ok || len(p.Unreachable) != len(o.Unreachable) {
		return false
	}
	for i := range p.Unreachable {
		if p.Unreachable[i] != o.Unreachable[i] {
			return false
		}
	}
	return true
}
