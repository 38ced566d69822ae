// Package minimize implements the clock-cluster minimizer: given an
// originally-violating trace, its external event script, a violation
// fingerprint, and an oracle able to replay a candidate external-event
// sequence, it shrinks the trace while the oracle keeps reproducing the
// fingerprint (SPEC_FULL.md §4.4).
package minimize

import "dporsched/internal/model"

// Aggressiveness controls how exhaustively TimerIterator is swept at each
// cluster-removal step.
type Aggressiveness int

const (
	// None sweeps every timer candidate exhaustively at every cluster.
	None Aggressiveness = iota
	// AllTimersFirstIteration sweeps exhaustively only for iteration 0,
	// then stops at the first successful removal for later clusters.
	AllTimersFirstIteration
	// StopImmediately stops at the first successful removal, always.
	StopImmediately
)

func (a Aggressiveness) String() string {
	switch a {
	case None:
		return "None"
	case AllTimersFirstIteration:
		return "AllTimersFirstIteration"
	case StopImmediately:
		return "StopImmediately"
	default:
		return "Unknown"
	}
}

// ClockOf extracts the logical clock from a delivered message's payload,
// if it carries one (model.ClockedPayload). Events without a clock (ok =
// false) are always retained by the clusterizer.
func ClockOf(u model.Unique) (value int64, ok bool) {
	m, isMsg := u.Event.(model.MsgEvent)
	if !isMsg || m.Payload == nil {
		return 0, false
	}
	cp, isClocked := m.Payload.(model.ClockedPayload)
	if !isClocked {
		return 0, false
	}
	return cp.LogicalClock()
}

// isTimer reports whether u wraps a timer-marker payload, regardless of
// any clock it might separately carry; timers are managed by TimerIterator
// rather than by clock clustering.
func isTimer(u model.Unique) bool {
	m, ok := u.Event.(model.MsgEvent)
	return ok && model.IsTimerMarker(m.Payload)
}

// PendingRef is a reference into a wildcard-matching scan over a snapshot
// of a receiver's pending queue: its position in that snapshot plus the
// Unique it names.
type PendingRef struct {
	Index  int
	Unique model.Unique
}

// WildCardPredicate reports whether a pending delivery satisfies a
// wildcard pattern.
type WildCardPredicate func(model.Unique) bool

// WildCard is a (sender, receiver) pattern with empty fields acting as
// wildcards; Matches builds a WildCardPredicate bound to this pattern.
type WildCard struct {
	Sender   string
	Receiver string
}

// Predicate returns the WildCardPredicate this pattern represents.
func (w WildCard) Predicate() WildCardPredicate {
	return func(u model.Unique) bool {
		m, ok := u.Event.(model.MsgEvent)
		if !ok {
			return false
		}
		if w.Sender != "" && m.Sender != w.Sender {
			return false
		}
		if w.Receiver != "" && m.Receiver != w.Receiver {
			return false
		}
		return true
	}
}
