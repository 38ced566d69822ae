// Package model defines the tagged Event variants and the Unique identity
// DPOR attaches to each observed delivery.
package model

// Event is a tagged variant: MsgEvent, NetworkPartition, WaitQuiescence,
// SpawnEvent, or the sentinel Root. Implementations are closed to this
// package; callers switch on the concrete type, never on a string tag.
type Event interface {
	isEvent()
	// Kind returns a stable, human-readable discriminator for logging and
	// trace serialization.
	Kind() string
}

// MsgEvent is a single message delivery from Sender to Receiver.
type MsgEvent struct {
	Sender   string
	Receiver string
	Payload  Payload
}

func (MsgEvent) isEvent()     {}
func (MsgEvent) Kind() string { return "MsgEvent" }

// NetworkPartition is a bidirectional partition between two actor groups.
type NetworkPartition struct {
	GroupA []string
	GroupB []string
}

func (NetworkPartition) isEvent()     {}
func (NetworkPartition) Kind() string { return "NetworkPartition" }

// WaitQuiescence is a barrier: wait until the system is idle.
type WaitQuiescence struct{}

func (WaitQuiescence) isEvent()     {}
func (WaitQuiescence) Kind() string { return "WaitQuiescence" }

// SpawnEvent records actor creation. It is observed only and never
// scheduled by the driver.
type SpawnEvent struct {
	Name string
}

func (SpawnEvent) isEvent()     {}
func (SpawnEvent) Kind() string { return "SpawnEvent" }

// rootEvent is the sentinel event for the dependency graph's root node.
type rootEvent struct{}

func (rootEvent) isEvent()     {}
func (rootEvent) Kind() string { return "Root" }

// Root is the sentinel event; RootID is its reserved id.
var Root Event = rootEvent{}

// RootID is the reserved id of the sentinel root Unique.
const RootID uint64 = 0

// NoiseID marks system/noise events to be filtered from scheduling
// consideration; it is numerically identical to RootID but kept as a
// distinct name for readability at call sites that test for noise rather
// than for the graph root.
const NoiseID uint64 = 0
