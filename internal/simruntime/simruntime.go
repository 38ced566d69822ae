// Package simruntime implements the deterministic fake actor runtime used by
// tests and example scenarios to exercise internal/scheduler.Engine (the
// real subject of this module is the DPOR driver, not a production actor
// framework). It is grounded on the teacher's goroutine-per-worker pattern
// in internal/dag.Executor.RunParallel: one goroutine per live actor,
// synchronized through channels rather than a shared mutex around
// application code, plus golang.org/x/sync/errgroup to supervise the actor
// pool and propagate the first fatal handler error.
//
// Delivery is driven entirely by the scheduler: an actor never delivers a
// message to itself. Sending reports the send to the Instrumenter
// (EventProduced) and returns; the message is only actually handed to the
// target behavior when the driver later calls DispatchNewMessage with the
// same (Cell, Envelope) pair. This keeps the whole system's observable
// behavior exactly as deterministic as the scheduler's choices, even though
// each actor has its own goroutine.
package simruntime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dporsched/internal/model"
	"dporsched/internal/runtimecontract"
)

// Context is what a Behavior uses to interact with the rest of the system.
type Context struct {
	Self string
	rt   *Runtime
}

// Send reports a logical send from Self to receiver; it does not deliver
// the message, only registers it as a pending envelope with the driver.
func (c *Context) Send(receiver string, payload model.Payload) error {
	return c.rt.reportSend(c.Self, receiver, payload)
}

// ScheduleTimer reports a timer marker send to Self's own lane.
func (c *Context) ScheduleTimer(name string, inner model.Payload, repeating bool) error {
	return c.rt.reportTimer(c.Self, model.TimerMarker{Receiver: c.Self, TimerName: name, InnerMsg: inner, Repeating: repeating})
}

// CancelTimer reports cancellation of a previously scheduled timer.
func (c *Context) CancelTimer(name string) bool {
	return c.rt.instr.NotifyTimerCancelled(c.Self, name)
}

// Behavior is user-supplied actor logic: react to one delivered message.
type Behavior func(ctx *Context, msg model.Payload)

// command is what the driver hands to an actor's goroutine to wake it up.
type command struct {
	msg  model.Payload
	done chan struct{}
}

type actor struct {
	name     string
	behavior Behavior
	inbox    chan command
}

// Runtime is a deterministic, in-memory runtimecontract.Runtime.
type Runtime struct {
	mu     sync.Mutex
	actors map[string]*actor
	instr  runtimecontract.Instrumenter

	eg     *errgroup.Group
	egCtx  context.Context
	cancel context.CancelFunc
}

// New returns an empty Runtime reporting to instr, with its actor
// supervisor group already started against context.Background(); call
// RestartSystem to rebind it to a caller-supplied context.
func New(instr runtimecontract.Instrumenter) *Runtime {
	r := &Runtime{
		actors: make(map[string]*actor),
		instr:  instr,
	}
	r.resetGroup(context.Background())
	return r
}

// resetGroup installs a fresh errgroup/context pair. Must be called with
// r.mu NOT held (it takes the lock itself).
func (r *Runtime) resetGroup(ctx context.Context) {
	egCtx, cancel := context.WithCancel(ctx)
	group, egCtx := errgroup.WithContext(egCtx)
	r.mu.Lock()
	r.eg = group
	r.egCtx = egCtx
	r.cancel = cancel
	r.mu.Unlock()
}

// cellEnvelope is the concrete pair this runtime hands to the driver as the
// opaque runtimecontract.Cell / runtimecontract.Envelope.
type cellEnvelope struct {
	actorName string
	payload   model.Payload
}

// ActorOf implements runtimecontract.Runtime. props must be a Behavior.
func (r *Runtime) ActorOf(props runtimecontract.ActorProps, name string) (runtimecontract.Handle, error) {
	behavior, ok := props.(Behavior)
	if !ok {
		return nil, fmt.Errorf("simruntime: ActorProps for %q must be a simruntime.Behavior, got %T", name, props)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actors[name]; exists {
		return nil, fmt.Errorf("simruntime: actor %q already exists", name)
	}
	a := &actor{name: name, behavior: behavior, inbox: make(chan command)}
	r.actors[name] = a
	r.startLocked(a)
	return name, nil
}

// startLocked spawns a's goroutine under the supervising errgroup. Must be
// called with r.mu held.
func (r *Runtime) startLocked(a *actor) {
	egCtx := r.egCtx
	r.eg.Go(func() error {
		return r.runActor(egCtx, a)
	})
}

func (r *Runtime) runActor(ctx context.Context, a *actor) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-a.inbox:
			if !ok {
				return nil
			}
			actorCtx := &Context{Self: a.name, rt: r}
			a.behavior(actorCtx, cmd.msg)
			close(cmd.done)
		}
	}
}

// ActorMappings implements runtimecontract.Runtime.
func (r *Runtime) ActorMappings() map[string]runtimecontract.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]runtimecontract.Handle, len(r.actors))
	for name := range r.actors {
		out[name] = name
	}
	return out
}

// Send implements runtimecontract.Runtime: injects an externally-originated
// message (from an ExternalEvent.SendEvent), attributed to sender
// "$external".
func (r *Runtime) Send(handle runtimecontract.Handle, msg model.Payload) error {
	receiver, ok := handle.(string)
	if !ok {
		return fmt.Errorf("simruntime: invalid handle %v", handle)
	}
	return r.reportSend("$external", receiver, msg)
}

func (r *Runtime) reportSend(sender, receiver string, payload model.Payload) error {
	r.mu.Lock()
	if _, ok := r.actors[receiver]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("simruntime: unknown receiver %q", receiver)
	}
	r.mu.Unlock()
	env := cellEnvelope{actorName: receiver, payload: payload}
	return r.instr.EventProduced(receiver, env, sender, receiver, payload)
}

func (r *Runtime) reportTimer(receiver string, marker model.TimerMarker) error {
	env := cellEnvelope{actorName: receiver, payload: marker}
	return r.instr.NotifyTimerScheduled(receiver, env, receiver, marker)
}

// DispatchNewMessage implements runtimecontract.Runtime: synchronously
// delivers env to the actor named by cell, blocking until that actor's
// Behavior has finished reacting (and has reported every send it made
// along the way).
func (r *Runtime) DispatchNewMessage(cell runtimecontract.Cell, env runtimecontract.Envelope) error {
	name, ok := cell.(string)
	if !ok {
		return fmt.Errorf("simruntime: invalid cell %v", cell)
	}
	var payload model.Payload
	switch ce := env.(type) {
	case cellEnvelope:
		payload = ce.payload
	case model.MsgEvent:
		// The engine builds NodesUnreachable notices itself when it
		// dispatches a NetworkPartition, as plain MsgEvent envelopes.
		payload = ce.Payload
	default:
		return fmt.Errorf("simruntime: invalid envelope %v", env)
	}
	r.mu.Lock()
	a, ok := r.actors[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("simruntime: unknown actor %q", name)
	}
	cmd := command{msg: payload, done: make(chan struct{})}
	select {
	case a.inbox <- cmd:
	case <-r.egCtx.Done():
		return r.egCtx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-r.egCtx.Done():
		return r.egCtx.Err()
	}
}

// RestartSystem implements runtimecontract.Runtime: tears down every actor
// goroutine and clears state, so the next interleaving starts from a clean
// slate. Actor behaviors are expected to be pure functions of the message
// they receive plus whatever closed-over state the scenario wired up, per
// the "replay determinism" property (§8); this runtime does not persist
// mutable actor state across a restart.
func (r *Runtime) RestartSystem(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	eg := r.eg
	r.mu.Unlock()
	if eg != nil {
		_ = eg.Wait()
	}

	r.mu.Lock()
	r.actors = make(map[string]*actor)
	r.mu.Unlock()

	r.resetGroup(ctx)
	return nil
}

// AwaitEnqueue implements runtimecontract.Runtime. Every send this runtime
// ever makes happens synchronously inside a driver-initiated
// DispatchNewMessage call, so by the time the driver's pump loop reports
// nothing schedulable, the system genuinely is idle: AwaitEnqueue reports
// that idleness upward immediately via NotifyQuiescence rather than waiting
// on some future asynchronous arrival that, in this runtime, can never
// come.
func (r *Runtime) AwaitEnqueue(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.instr.NotifyQuiescence()
}

// ActorNames returns the currently live actor names in lexicographic order,
// useful for scenario assertions.
func (r *Runtime) ActorNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.actors))
	for name := range r.actors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
