// Package runtimecontract defines the boundary contracts the DPOR engine
// expects of its external collaborators: the instrumented actor runtime,
// the minimization oracle, and the external-event vocabulary accepted by a
// top-level Run. Per SPEC_FULL.md §1, the runtime itself, the fuzzer, the
// ShiViz visualizer, the replay-only scheduler, and the failure-detector /
// checkpoint / timer-fingerprint modules are all external collaborators
// reachable only through these interfaces.
package runtimecontract

import (
	"context"
	"errors"

	"dporsched/internal/model"
)

// Cell is an opaque runtime-owned handle for the actor processing an
// envelope; the engine never inspects it.
type Cell any

// Envelope is an opaque runtime-owned wrapper around a delivered message;
// the engine never inspects it beyond what Instrumenter extracts.
type Envelope any

// Handle is an opaque runtime-owned actor reference.
type Handle any

// ActorProps is an opaque runtime-owned actor construction descriptor.
type ActorProps any

// Runtime is what the scheduler driver expects of the instrumented actor
// runtime (§6).
type Runtime interface {
	ActorOf(props ActorProps, name string) (Handle, error)
	ActorMappings() map[string]Handle
	Send(handle Handle, msg model.Payload) error
	DispatchNewMessage(cell Cell, env Envelope) error
	RestartSystem(ctx context.Context) error
	AwaitEnqueue(ctx context.Context) error
}

// Instrumenter is what the instrumented runtime calls back into on the
// driver (§4.1): EventProduced on every send, NotifyQuiescence when idle,
// and the timer hooks.
type Instrumenter interface {
	EventProduced(cell Cell, env Envelope, sender, receiver string, payload model.Payload) error
	NotifyQuiescence() error
	NotifyTimerScheduled(cell Cell, env Envelope, receiver string, marker model.TimerMarker) error
	NotifyTimerCancelled(receiver string, timerName string) (removed bool)
}

// Fingerprint is an opaque, equality-comparable digest of a violation,
// produced by the user-supplied invariant.
type Fingerprint interface {
	Equal(other Fingerprint) bool
}

// ExternalEvent is the tagged vocabulary accepted by a top-level Run.
type ExternalEvent interface {
	isExternalEvent()
}

// StartEvent spawns an actor.
type StartEvent struct {
	Props ActorProps
	Name  string
}

func (StartEvent) isExternalEvent() {}

// SendEvent injects a user message.
type SendEvent struct {
	Receiver string
	Msg      model.Payload
}

func (SendEvent) isExternalEvent() {}

// PartitionEvent requests an atomic bidirectional partition.
type PartitionEvent struct {
	GroupA []string
	GroupB []string
}

func (PartitionEvent) isExternalEvent() {}

// QuiescenceEvent requests a barrier wait.
type QuiescenceEvent struct{}

func (QuiescenceEvent) isExternalEvent() {}

// ErrUnknownExternalEvent is returned when Run is given an ExternalEvent
// variant it does not recognize (programmer error, fatal per §7).
var ErrUnknownExternalEvent = errors.New("runtimecontract: unknown external event type")

// Stats accumulates oracle-visible search statistics surfaced to the
// minimizer (§7: "recoverable conditions ... surface in minimization
// statistics").
type Stats struct {
	Replays         int
	InterleavingsRun int
	PruneCount      int
}

// Oracle is what the minimizer expects (§6): replay externals, constrained
// to the given candidate trace (a subsequence of a previously-observed
// run), and report whether the resulting execution still reproduces fp.
type Oracle interface {
	Test(ctx context.Context, externals []ExternalEvent, candidate []model.Unique, fp Fingerprint, stats *Stats) (trace []model.Unique, reproduced bool, err error)
}

// ReplayOracle is the stripped, analysis-free scheduler that only replays a
// fixed trace with no DPOR bookkeeping. It is referenced only by interface
// per SPEC_FULL.md §1 ("the replay-only scheduler") and is not implemented
// by this module.
type ReplayOracle interface {
	Replay(ctx context.Context, trace []model.Unique) error
}
