// Package checkpoint defines the contract for persisting mid-search engine
// state (SPEC_FULL.md §1: "the checkpoint ... module, referenced only by
// interface") plus a file-backed default implementation, grounded on the
// teacher's internal/recovery/state.Store: one JSON file per checkpoint
// under a run directory, written with an atomic temp-file-then-rename plus
// directory fsync.
package checkpoint

import (
	"context"
	"time"

	"dporsched/internal/tracelog"
)

// Checkpoint is a durable snapshot of an in-progress search: enough to
// resume the driver at the same point in the same interleaving without
// replaying from the beginning.
type Checkpoint struct {
	ID          string       `json:"id"`
	RunID       string       `json:"run_id"`
	Timestamp   time.Time    `json:"timestamp"`
	RunCounter  int          `json:"run_counter"`
	CurrentTrace tracelog.Log `json:"current_trace"`
	NextTrace    tracelog.Log `json:"next_trace"`
	GraphHash   string       `json:"graph_hash"`
}

// Store is the checkpoint persistence contract, implemented by FileStore
// and by the in-memory MemStore. internal/scheduler does not use it;
// internal/cliapp writes its final checkpoint through a FileStore.
type Store interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, runID, id string) (Checkpoint, error)
	Latest(ctx context.Context, runID string) (Checkpoint, bool, error)
	List(ctx context.Context, runID string) ([]string, error)
}
