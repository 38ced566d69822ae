package scheduler

import (
	"context"
	"fmt"

	"dporsched/internal/dpor"
	"dporsched/internal/minimize"
	"dporsched/internal/model"
	"dporsched/internal/pending"
	"dporsched/internal/runtimecontract"
)

// EventProduced implements runtimecontract.Instrumenter: the runtime
// observed a send. It records the edge in the dependency graph
// unconditionally (so later interleavings can find it as a sibling even
// once the depth bound is in force), and enqueues it on the receiver's lane
// unless MaxDepth has already been reached.
func (e *Engine) EventProduced(cell runtimecontract.Cell, env runtimecontract.Envelope, sender, receiver string, payload model.Payload) error {
	u := e.GetOrCreateMessage(sender, receiver, payload)
	if err := e.graph.AddChild(u, e.parentCursor, e.currentQuiescentPeriod); err != nil {
		return newInvariantViolation(InvariantParentNotMsg, u.ID, "%s", err.Error())
	}
	if e.currentDepth+1 > e.maxDepth {
		e.log.Debugw("depth bound reached, not enqueuing", "event", e.fmtEventSummary(u), "max_depth", e.maxDepth)
		return nil
	}
	e.pend.Push(pending.Lane(receiver), pending.Entry{Unique: u, HasUnique: true, Cell: cell, Envelope: env})
	return nil
}

// NotifyTimerScheduled implements runtimecontract.Instrumenter.
func (e *Engine) NotifyTimerScheduled(cell runtimecontract.Cell, env runtimecontract.Envelope, receiver string, marker model.TimerMarker) error {
	u := e.GetOrCreateMessage("$timer", receiver, marker)
	if err := e.graph.AddChild(u, e.parentCursor, e.currentQuiescentPeriod); err != nil {
		return newInvariantViolation(InvariantParentNotMsg, u.ID, "%s", err.Error())
	}
	if e.currentDepth+1 > e.maxDepth {
		return nil
	}
	e.pend.Push(pending.Lane(receiver), pending.Entry{Unique: u, HasUnique: true, Cell: cell, Envelope: env})
	return nil
}

// NotifyTimerCancelled implements runtimecontract.Instrumenter. Missing
// entries are silently ignored, per §7.
func (e *Engine) NotifyTimerCancelled(receiver, timerName string) bool {
	lane := pending.Lane(receiver)
	return e.pend.Remove(lane, func(entry pending.Entry) bool {
		if !entry.HasUnique {
			return false
		}
		m, ok := entry.Unique.Event.(model.MsgEvent)
		if !ok {
			return false
		}
		tm, ok := m.Payload.(model.TimerMarker)
		if !ok {
			return false
		}
		return tm.TimerName == timerName
	})
}

// NotifyQuiescence implements runtimecontract.Instrumenter.
func (e *Engine) NotifyQuiescence() error {
	if e.awaitingQuiescence {
		e.currentQuiescentPeriod = e.nextQuiescentPeriod
		e.graph.AddOrphan(e.pendingQuiescenceMark, e.currentQuiescentPeriod)
		e.currentTrace = append(e.currentTrace, e.pendingQuiescenceMark)
		e.parentCursor = e.pendingQuiescenceMark
		e.awaitingQuiescence = false
		return nil
	}

	e.lastTrace = e.CurrentTrace()
	result := dpor.Analyze(e.graph, e.currentTrace, e.backtrack, e.explored)
	if result.Done {
		e.done = true
		return nil
	}
	e.nextTrace = result.NextTrace
	e.runCounter++
	e.resetRun()
	return e.rt.RestartSystem(context.Background())
}

// ScheduleNewMessage implements the selection algorithm of §4.1: priority
// lane first, then convergent-or-divergent trace-guided selection, then
// (while awaiting quiescence) pure divergent draining. It is non-blocking:
// ok=false means nothing is presently schedulable.
func (e *Engine) ScheduleNewMessage() (runtimecontract.Cell, runtimecontract.Envelope, bool) {
	for {
		entry, lane, ok := e.selectEntry()
		if !ok {
			return nil, nil, false
		}

		if lane == pending.Priority {
			return entry.Cell, entry.Envelope, true
		}

		if !entry.HasUnique {
			// Defensive: only Priority entries are expected to lack a
			// Unique; anything else indicates a construction bug upstream.
			e.log.Warnw("pending entry missing unique outside priority lane", "lane", string(lane))
			continue
		}

		switch evt := entry.Unique.Event.(type) {
		case model.MsgEvent:
			m := evt
			if e.partitioned(m.Sender, m.Receiver) {
				e.log.Debugw("dropping message across partition", "sender", m.Sender, "receiver", m.Receiver)
				continue
			}
			e.currentTrace = append(e.currentTrace, entry.Unique)
			e.parentCursor = entry.Unique
			e.currentDepth = len(e.graph.PathToRoot(entry.Unique.ID)) - 1
			return entry.Cell, entry.Envelope, true

		case model.NetworkPartition:
			e.dispatchPartition(entry.Unique)
			continue

		case model.WaitQuiescence:
			e.nextQuiescentPeriod = uint32(entry.Unique.ID)
			e.pendingQuiescenceMark = entry.Unique
			e.awaitingQuiescence = true
			continue

		default:
			e.log.Warnw("unexpected scheduler-lane event kind", "kind", entry.Unique.Event.Kind())
			continue
		}
	}
}

// selectEntry implements the three-branch selection order from §4.1.
func (e *Engine) selectEntry() (pending.Entry, pending.Lane, bool) {
	if entry, ok := e.pend.Pop(pending.Priority); ok {
		return entry, pending.Priority, true
	}

	if !e.awaitingQuiescence {
		if t, has := e.expectedNext(); has {
			switch m := t.Event.(type) {
			case model.MsgEvent:
				if entry, ok := e.pend.FindEquivalent(pending.Lane(m.Receiver), t); ok {
					e.advanceExpected()
					return entry, pending.Lane(m.Receiver), true
				}
				if entry, lane, ok := e.resolveWildcard(m); ok {
					e.advanceExpected()
					return entry, lane, true
				}
			case model.NetworkPartition, model.WaitQuiescence:
				if entry, ok := e.pend.FindEquivalent(pending.Scheduler, t); ok {
					e.advanceExpected()
					return entry, pending.Scheduler, true
				}
			}
			e.recordDivergence(t)
		}
	}

	lane, entry, ok := e.pend.PopAnyLexicographic()
	return entry, lane, ok
}

// resolveWildcard is the minimizer-aware fallback for when a replay-guided
// expected message has no literal match on its lane: this occurs when the
// minimizer pruned the expected message's original predecessor, shifting
// which concrete sibling now sits where the candidate trace expects it.
// It only applies when an engine.strategy is configured (nil by default);
// it never fires for the NetworkPartition/WaitQuiescence case, which carry
// no (sender, receiver) pattern to match against.
func (e *Engine) resolveWildcard(want model.MsgEvent) (pending.Entry, pending.Lane, bool) {
	if e.strategy == nil {
		return pending.Entry{}, "", false
	}
	lane := pending.Lane(want.Receiver)
	snapshot := e.pend.Snapshot(lane)
	refs := make([]minimize.PendingRef, len(snapshot))
	for i, entry := range snapshot {
		refs[i] = minimize.PendingRef{Index: i, Unique: entry.Unique}
	}
	pred := minimize.WildCard{Sender: want.Sender, Receiver: want.Receiver}.Predicate()
	alternatives := 0
	idx, ok := e.strategy.Resolve(pred, refs, func(minimize.PendingRef) { alternatives++ })
	if !ok {
		return pending.Entry{}, "", false
	}
	if alternatives > 0 {
		// The strategy flagged other matches worth retrying; this module
		// does not yet feed them back into backtrack.Queue (that needs a
		// causal branch point the minimizer's candidate trace doesn't
		// carry), so they are only surfaced here at debug.
		e.log.Debugw("wildcard match had untracked alternatives", "receiver", want.Receiver, "count", alternatives)
	}
	entry, ok := e.pend.PopAt(lane, idx)
	return entry, lane, ok
}

// recordDivergence logs the non-fatal replay-divergence condition and,
// under DivergenceFeedsAbsentTracking, forwards it to the configured
// AbsentRecorder so the minimizer can learn that these ids never fire.
func (e *Engine) recordDivergence(expected model.Unique) {
	e.log.Debugw("replay divergence", "expected", e.fmtEventSummary(expected))
	if e.divergencePolicy == DivergenceFeedsAbsentTracking && e.absent != nil {
		e.absent.RecordAbsent(e.parentCursor.ID, expected.ID)
	}
}

// dispatchPartition implements "Dispatching a NetworkPartition" from §4.1:
// atomic decomposition into per-actor NodesUnreachable notifications on
// PRIORITY, bidirectional PartitionMap update, and an orphan trace/graph
// entry for the NetworkPartition marker itself.
func (e *Engine) dispatchPartition(u model.Unique) {
	np := u.Event.(model.NetworkPartition)
	e.addPartition(np.GroupA, np.GroupB)

	mappings := e.rt.ActorMappings()
	notify := func(actor string, unreachable []string) {
		handle := mappings[actor]
		env := model.MsgEvent{Sender: "$partition", Receiver: actor, Payload: model.NodesUnreachablePayload{Unreachable: unreachable}}
		e.pend.Push(pending.Priority, pending.Entry{HasUnique: false, Cell: handle, Envelope: env})
	}
	for _, a := range np.GroupA {
		notify(a, np.GroupB)
	}
	for _, b := range np.GroupB {
		notify(b, np.GroupA)
	}

	e.graph.AddOrphan(u, e.currentQuiescentPeriod)
	e.currentTrace = append(e.currentTrace, u)
}

// injectExternal turns a runtimecontract.ExternalEvent into the
// corresponding scheduler-visible action: Start/Send go straight to the
// runtime; NetworkPartition/WaitQuiescence are allocated an id and queued
// on the SCHEDULER lane so ordinary selection picks them up.
func (e *Engine) injectExternal(ev runtimecontract.ExternalEvent) error {
	switch v := ev.(type) {
	case runtimecontract.StartEvent:
		_, err := e.rt.ActorOf(v.Props, v.Name)
		return err

	case runtimecontract.SendEvent:
		handle, ok := e.rt.ActorMappings()[v.Receiver]
		if !ok {
			return fmt.Errorf("scheduler: unknown actor %q in external Send", v.Receiver)
		}
		return e.rt.Send(handle, v.Msg)

	case runtimecontract.PartitionEvent:
		id := e.ids.Next()
		u := model.Unique{Event: model.NetworkPartition{GroupA: v.GroupA, GroupB: v.GroupB}, ID: id}
		e.pend.Push(pending.Scheduler, pending.Entry{Unique: u, HasUnique: true})
		return nil

	case runtimecontract.QuiescenceEvent:
		id := e.ids.Next()
		u := model.Unique{Event: model.WaitQuiescence{}, ID: id}
		e.pend.Push(pending.Scheduler, pending.Entry{Unique: u, HasUnique: true})
		return nil

	default:
		return runtimecontract.ErrUnknownExternalEvent
	}
}

// Run drives exactly one interleaving: it replays externals (the fixed
// high-level script) against the current runtime generation, pumping
// ScheduleNewMessage/DispatchNewMessage after each injection, then asks the
// runtime to report idleness via AwaitEnqueue, which is expected to call
// back NotifyQuiescence. Per the "no coroutine machinery" design note,
// suspension between interleavings is modeled by Run returning rather than
// looping internally: the caller (internal/cliapp's outer loop, or a test)
// re-invokes Run with the same externals once Done reports false, relying
// on NotifyQuiescence having already primed NextTrace and restarted the
// runtime.
func (e *Engine) Run(ctx context.Context, externals []runtimecontract.ExternalEvent) ([]model.Unique, error) {
	for _, ev := range externals {
		if err := e.injectExternal(ev); err != nil {
			return nil, err
		}
		if err := e.pumpUntilBlocked(ctx); err != nil {
			return nil, err
		}
		// A QuiescenceEvent mid-script sets awaitingQuiescence and drains to
		// nothing schedulable; resolve that barrier now, before injecting any
		// subsequent external, rather than waiting for end-of-script.
		if e.awaitingQuiescence {
			if err := e.rt.AwaitEnqueue(ctx); err != nil {
				return nil, err
			}
			if err := e.pumpUntilBlocked(ctx); err != nil {
				return nil, err
			}
		}
	}
	if err := e.pumpUntilBlocked(ctx); err != nil {
		return nil, err
	}
	if err := e.rt.AwaitEnqueue(ctx); err != nil {
		return nil, err
	}
	if err := e.pumpUntilBlocked(ctx); err != nil {
		return nil, err
	}
	return e.lastTrace, nil
}

// pumpUntilBlocked dispatches every presently schedulable envelope.
func (e *Engine) pumpUntilBlocked(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cell, env, ok := e.ScheduleNewMessage()
		if !ok {
			return nil
		}
		if err := e.rt.DispatchNewMessage(cell, env); err != nil {
			return fmt.Errorf("scheduler: dispatch failed: %w", err)
		}
	}
}
