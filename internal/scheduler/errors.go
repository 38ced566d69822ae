package scheduler

import (
	"fmt"

	"dporsched/internal/model"
)

// InvariantName discriminates the fatal invariant-violation conditions the
// engine can detect; named so a caller can report or alert on it without
// parsing an error string.
type InvariantName string

const (
	// InvariantParentNotMsg fires when the parent cursor does not refer to
	// a MsgEvent (every non-root parent edge must be a message delivery).
	InvariantParentNotMsg InvariantName = "parent_not_msg_event"
	// InvariantPendingShape names a pending.Entry missing data its lane
	// requires (e.g. a receiver-lane entry with no Unique). The engine does
	// not raise it: ScheduleNewMessage logs such an entry at warn and skips
	// it.
	InvariantPendingShape InvariantName = "unexpected_pending_shape"
	// InvariantPathToRoot names a node that cannot reach the root. The
	// engine does not raise it: nothing in internal/scheduler calls
	// depgraph.CheckInvariants.
	InvariantPathToRoot InvariantName = "missing_path_to_root"
)

// InvariantReport names the failing invariant and carries enough context
// to log or alert on it without re-deriving the failure.
type InvariantReport struct {
	Name    InvariantName
	Detail  string
	EventID uint64
}

func (r *InvariantReport) Error() string {
	return fmt.Sprintf("scheduler: invariant violation %s: %s (event %d)", r.Name, r.Detail, r.EventID)
}

// ErrInvariantViolation wraps an *InvariantReport; fatal, aborts the
// search. Use errors.As to recover the report.
type ErrInvariantViolation struct {
	Report *InvariantReport
}

func (e *ErrInvariantViolation) Error() string { return e.Report.Error() }
func (e *ErrInvariantViolation) Unwrap() error  { return e.Report }

func newInvariantViolation(name InvariantName, eventID uint64, detailFormat string, args ...any) *ErrInvariantViolation {
	return &ErrInvariantViolation{Report: &InvariantReport{
		Name:    name,
		Detail:  fmt.Sprintf(detailFormat, args...),
		EventID: eventID,
	}}
}

// ErrReplayDivergence describes the non-fatal replay-divergence condition.
// The engine neither constructs nor returns it: recordDivergence logs the
// expected event at debug and scheduling continues divergently.
type ErrReplayDivergence struct {
	Expected model.Unique
	Actual   model.Unique
}

func (e *ErrReplayDivergence) Error() string {
	return fmt.Sprintf("scheduler: replay divergence, expected %d got %d", e.Expected.ID, e.Actual.ID)
}
