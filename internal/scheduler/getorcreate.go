package scheduler

import "dporsched/internal/model"

// GetOrCreateMessage implements SPEC_FULL.md §4.2: given the sender,
// receiver and payload of a newly observed send, search the dependency
// graph's existing children of the current parent cursor for a sibling
// whose receiver and payload match (payload equivalence honors the timer-marker
// rule via model.Payload.EquivalentTo). If found, its Unique is reused
// (this is what makes a replayed interleaving converge onto the same
// ids); otherwise a fresh id is allocated.
func (e *Engine) GetOrCreateMessage(sender, receiver string, payload model.Payload) model.Unique {
	parent := e.parentCursor
	for _, childID := range e.graph.Siblings(parent.ID) {
		child, ok := e.graph.Unique(childID)
		if !ok {
			continue
		}
		m, ok := child.Event.(model.MsgEvent)
		if !ok {
			continue
		}
		if m.Receiver != receiver {
			continue
		}
		if m.Payload == nil || payload == nil {
			continue
		}
		if m.Payload.EquivalentTo(payload) {
			return child
		}
	}
	id := e.ids.Next()
	return model.Unique{Event: model.MsgEvent{Sender: sender, Receiver: receiver, Payload: payload}, ID: id}
}
