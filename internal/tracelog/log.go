// Package tracelog implements the persisted representation of a CurrentTrace
// (SPEC_FULL.md §6): an ordered sequence of model.Uniques, preserving
// receiver/sender names and id numbers, with payload bytes carried through
// a pluggable PayloadCodec. Two logs replay identically iff their id
// sequences match.
//
// The persistence shape (JSON metadata with a custom PayloadCodec for the
// opaque payload bytes, atomic temp-file-then-rename writes) mirrors the
// teacher's internal/core.FileCache and internal/trace.ExecutionTrace.
package tracelog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"dporsched/internal/model"
)

// Entry is the persisted form of one model.Unique.
type Entry struct {
	ID          uint64   `json:"id"`
	Kind        string   `json:"kind"`
	Sender      string   `json:"sender,omitempty"`
	Receiver    string   `json:"receiver,omitempty"`
	PayloadKind string   `json:"payload_kind,omitempty"`
	Payload     []byte   `json:"payload,omitempty"`
	GroupA      []string `json:"group_a,omitempty"`
	GroupB      []string `json:"group_b,omitempty"`
}

// Log is an ordered, persisted CurrentTrace.
type Log struct {
	Entries []Entry `json:"entries"`
}

// FromTrace converts an in-memory trace to its persisted form using codec
// to serialize each MsgEvent's payload.
func FromTrace(trace []model.Unique, codec PayloadCodec) (Log, error) {
	log := Log{Entries: make([]Entry, 0, len(trace))}
	for _, u := range trace {
		e, err := encodeUnique(u, codec)
		if err != nil {
			return Log{}, fmt.Errorf("tracelog: encode id %d: %w", u.ID, err)
		}
		log.Entries = append(log.Entries, e)
	}
	return log, nil
}

// ToTrace reconstructs the in-memory trace, decoding payloads via codec.
func (l Log) ToTrace(codec PayloadCodec) ([]model.Unique, error) {
	out := make([]model.Unique, 0, len(l.Entries))
	for _, e := range l.Entries {
		u, err := decodeEntry(e, codec)
		if err != nil {
			return nil, fmt.Errorf("tracelog: decode id %d: %w", e.ID, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func encodeUnique(u model.Unique, codec PayloadCodec) (Entry, error) {
	switch ev := u.Event.(type) {
	case model.MsgEvent:
		kind, data, err := codec.Encode(ev.Payload)
		if err != nil {
			return Entry{}, err
		}
		return Entry{ID: u.ID, Kind: "MsgEvent", Sender: ev.Sender, Receiver: ev.Receiver, PayloadKind: kind, Payload: data}, nil
	case model.NetworkPartition:
		return Entry{ID: u.ID, Kind: "NetworkPartition", GroupA: ev.GroupA, GroupB: ev.GroupB}, nil
	case model.WaitQuiescence:
		return Entry{ID: u.ID, Kind: "WaitQuiescence"}, nil
	case model.SpawnEvent:
		return Entry{ID: u.ID, Kind: "SpawnEvent", Receiver: ev.Name}, nil
	default:
		return Entry{ID: u.ID, Kind: u.Event.Kind()}, nil
	}
}

func decodeEntry(e Entry, codec PayloadCodec) (model.Unique, error) {
	switch e.Kind {
	case "MsgEvent":
		payload, err := codec.Decode(e.PayloadKind, e.Payload)
		if err != nil {
			return model.Unique{}, err
		}
		return model.Unique{Event: model.MsgEvent{Sender: e.Sender, Receiver: e.Receiver, Payload: payload}, ID: e.ID}, nil
	case "NetworkPartition":
		return model.Unique{Event: model.NetworkPartition{GroupA: e.GroupA, GroupB: e.GroupB}, ID: e.ID}, nil
	case "WaitQuiescence":
		return model.Unique{Event: model.WaitQuiescence{}, ID: e.ID}, nil
	case "SpawnEvent":
		return model.Unique{Event: model.SpawnEvent{Name: e.Receiver}, ID: e.ID}, nil
	case "Root":
		return model.RootUnique, nil
	default:
		return model.Unique{}, fmt.Errorf("tracelog: unknown entry kind %q", e.Kind)
	}
}

// CanonicalJSON returns the deterministic JSON encoding of l (field order
// fixed by struct tag declaration order, matching encoding/json's default
// behavior for non-map types, so no custom MarshalJSON is needed here).
func (l Log) CanonicalJSON() ([]byte, error) {
	return json.Marshal(l)
}

// Hash returns the sha256 hex digest of l's canonical JSON.
func (l Log) Hash() (string, error) {
	b, err := l.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// IDSequence returns just the ordered ids, which is what "replay
// identically" is defined over (§6).
func (l Log) IDSequence() []uint64 {
	out := make([]uint64, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.ID
	}
	return out
}

// SameReplay reports whether l and other would replay identically: their
// id sequences match exactly.
func (l Log) SameReplay(other Log) bool {
	a, b := l.IDSequence(), other.IDSequence()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
